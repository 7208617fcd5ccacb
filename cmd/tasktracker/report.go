package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/task-tracker/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Daily task reports",
}

var reportSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build and send the report for a day",
	RunE:  runReportSend,
}

var reportShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the report for a day",
	RunE:  runReportShow,
}

var reportScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the report scheduler until interrupted",
	RunE:  runReportSchedule,
}

var reportDay string

func init() {
	reportCmd.AddCommand(reportSendCmd, reportShowCmd, reportScheduleCmd)
	reportSendCmd.Flags().StringVar(&reportDay, "day", "", "Day to report on (YYYY-MM-DD, default yesterday)")
	reportShowCmd.Flags().StringVar(&reportDay, "day", "", "Day to report on (YYYY-MM-DD, default yesterday)")
}

func resolveDay() (time.Time, error) {
	if reportDay == "" {
		return time.Now().UTC().AddDate(0, 0, -1), nil
	}
	day, err := time.Parse("2006-01-02", reportDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --day: %w", err)
	}
	return day, nil
}

func runReportSend(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	day, err := resolveDay()
	if err != nil {
		return err
	}

	builder, err := report.NewBuilder(a.store)
	if err != nil {
		return err
	}
	r, err := builder.Build(context.Background(), day)
	if err != nil {
		return err
	}

	dispatcher := report.NewMailDispatcher(a.cfg.Report.SMTPAddr, a.cfg.Report.From, a.cfg.Report.Recipients)
	if err := dispatcher.Dispatch(context.Background(), r); err != nil {
		return err
	}
	fmt.Printf("Report for %s sent to %d recipient(s)\n", r.Day.Format("2006-01-02"), len(a.cfg.Report.Recipients))
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	day, err := resolveDay()
	if err != nil {
		return err
	}

	builder, err := report.NewBuilder(a.store)
	if err != nil {
		return err
	}
	r, err := builder.Build(context.Background(), day)
	if err != nil {
		return err
	}
	fmt.Print(report.RenderText(r))
	return nil
}

func runReportSchedule(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	builder, err := report.NewBuilder(a.store)
	if err != nil {
		return err
	}
	dispatcher := report.NewMailDispatcher(a.cfg.Report.SMTPAddr, a.cfg.Report.From, a.cfg.Report.Recipients)

	scheduler := report.NewScheduler(builder, dispatcher, a.cfg.Report.Hour)
	scheduler.Start()
	defer scheduler.Stop()

	fmt.Printf("Scheduler running, firing daily at %02d:00 UTC. Ctrl-C to stop.\n", a.cfg.Report.Hour)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}
