package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/task-tracker/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with defaults",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file %s already exists", configPath)
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := model.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	fmt.Printf("database.path:               %s\n", cfg.Database.Path)
	fmt.Printf("dependencies.reject_cycles:  %t\n", cfg.Dependencies.RejectCycles)
	fmt.Printf("report.hour:                 %d\n", cfg.Report.Hour)
	fmt.Printf("report.from:                 %s\n", cfg.Report.From)
	fmt.Printf("report.smtp_addr:            %s\n", cfg.Report.SMTPAddr)
	fmt.Printf("report.recipients:           %v\n", cfg.Report.Recipients)
	fmt.Printf("scan.base_url:               %s\n", cfg.Scan.BaseURL)
	fmt.Printf("scan.api_key_ref:            %s\n", cfg.Scan.APIKeyRef)
	return nil
}
