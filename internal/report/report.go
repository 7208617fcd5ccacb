// Package report builds the daily summary of task activity and hands it
// to a dispatcher for delivery.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/internal/store"
)

var ErrStoreNil = errors.New("report: store is nil")

// Dispatcher delivers a finished report.
type Dispatcher interface {
	Dispatch(ctx context.Context, r *model.DailyReport) error
}

// Builder assembles daily reports from store activity.
type Builder struct {
	store store.Store
}

// NewBuilder creates a report builder over the given store.
func NewBuilder(st store.Store) (*Builder, error) {
	if st == nil {
		return nil, ErrStoreNil
	}
	return &Builder{store: st}, nil
}

// Build collects every task created or updated on the given calendar
// day (UTC) into a report.
func (b *Builder) Build(ctx context.Context, day time.Time) (*model.DailyReport, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	tasks, err := b.store.TasksChangedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("collecting changed tasks: %w", err)
	}

	return &model.DailyReport{
		Day:         start,
		Tasks:       tasks,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// RenderText formats a report as the plain-text mail body.
func RenderText(r *model.DailyReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Daily task report for %s\n\n", r.Day.Format("2006-01-02"))

	if len(r.Tasks) == 0 {
		sb.WriteString("No task activity.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "%d task(s) created or updated:\n\n", len(r.Tasks))
	for _, t := range r.Tasks {
		assignee := "unassigned"
		if t.AssignedTo != nil {
			assignee = *t.AssignedTo
		}
		fmt.Fprintf(&sb, "- [%s] %s (%s, %s priority, %s)\n",
			t.Status, t.Title, t.Type, t.Priority, assignee)
	}
	return sb.String()
}
