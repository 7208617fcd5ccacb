package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/task-tracker/internal/lifecycle"
	"github.com/nhle/task-tracker/internal/model"
	"github.com/nhle/task-tracker/internal/store"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update [task-id]",
	Short: "Update task fields or prerequisites",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskUpdate,
}

var taskStatusCmd = &cobra.Command{
	Use:   "status [task-id] [status]",
	Short: "Request a status change",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskStatus,
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign [task-id] [user-id]",
	Short: "Assign a task to a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAssign,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Move a task to the trash",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskRestoreCmd = &cobra.Command{
	Use:   "restore [task-id]",
	Short: "Restore a task from the trash",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRestore,
}

var taskPurgeCmd = &cobra.Command{
	Use:   "purge [task-id]",
	Short: "Permanently delete a trashed task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskPurge,
}

var taskBlockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "List blocked tasks",
	RunE:  runTaskBlocked,
}

var taskCommentCmd = &cobra.Command{
	Use:   "comment [task-id] [body]",
	Short: "Add a comment to a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskComment,
}

var taskAttachCmd = &cobra.Command{
	Use:   "attach [task-id] [file]",
	Short: "Scan and attach a file to a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskAttach,
}

var (
	addTitle    string
	addDesc     string
	addType     string
	addPriority string
	addDue      string
	addAssignee string
	addPrereqs  []string

	updTitle    string
	updDesc     string
	updType     string
	updPriority string
	updDue      string
	updAssignee string
	updPrereqs  []string

	listType     string
	listStatus   string
	listPriority string
	listAssignee string
	listSort     string
	listDesc     bool
	listLimit    int
)

func init() {
	taskCmd.AddCommand(
		taskAddCmd, taskListCmd, taskShowCmd, taskUpdateCmd,
		taskStatusCmd, taskAssignCmd, taskDeleteCmd, taskRestoreCmd,
		taskPurgeCmd, taskBlockedCmd, taskCommentCmd, taskAttachCmd,
	)

	taskAddCmd.Flags().StringVar(&addTitle, "title", "", "Task title (required)")
	taskAddCmd.Flags().StringVar(&addDesc, "desc", "", "Task description")
	taskAddCmd.Flags().StringVar(&addType, "type", string(model.TypeFeature), "Task type (bug, feature, improvement)")
	taskAddCmd.Flags().StringVar(&addPriority, "priority", string(model.PriorityMedium), "Priority (low, medium, high)")
	taskAddCmd.Flags().StringVar(&addDue, "due", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.Flags().StringVar(&addAssignee, "assignee", "", "Assigned user id")
	taskAddCmd.Flags().StringSliceVar(&addPrereqs, "depends-on", nil, "Prerequisite task ids")
	taskAddCmd.MarkFlagRequired("title")

	taskUpdateCmd.Flags().StringVar(&updTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringVar(&updDesc, "desc", "", "New description")
	taskUpdateCmd.Flags().StringVar(&updType, "type", "", "New type")
	taskUpdateCmd.Flags().StringVar(&updPriority, "priority", "", "New priority")
	taskUpdateCmd.Flags().StringVar(&updDue, "due", "", "New due date (YYYY-MM-DD)")
	taskUpdateCmd.Flags().StringVar(&updAssignee, "assignee", "", "New assigned user id")
	taskUpdateCmd.Flags().StringSliceVar(&updPrereqs, "depends-on", nil, "Replacement prerequisite set")

	taskListCmd.Flags().StringVar(&listType, "type", "", "Filter by type")
	taskListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status")
	taskListCmd.Flags().StringVar(&listPriority, "priority", "", "Filter by priority")
	taskListCmd.Flags().StringVar(&listAssignee, "assignee", "", "Filter by assigned user")
	taskListCmd.Flags().StringVar(&listSort, "sort", "created_at", "Sort column (created_at, due_date, priority, status, title)")
	taskListCmd.Flags().BoolVar(&listDesc, "desc", false, "Sort descending")
	taskListCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum rows")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	in := lifecycle.CreateInput{
		Title:           addTitle,
		Description:     addDesc,
		Type:            model.TaskType(addType),
		Priority:        model.TaskPriority(addPriority),
		PrerequisiteIDs: addPrereqs,
	}
	if addDue != "" {
		due, err := time.Parse("2006-01-02", addDue)
		if err != nil {
			return fmt.Errorf("parsing --due: %w", err)
		}
		in.DueDate = &due
	}
	if addAssignee != "" {
		in.AssignedTo = &addAssignee
	}

	t, err := a.lifecycle.Create(context.Background(), in, a.actor)
	if err != nil {
		return err
	}
	fmt.Printf("Created task %s (%s)\n", t.ID, t.Status)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	filter := store.TaskFilter{SortBy: listSort, SortDesc: listDesc, Limit: listLimit}
	if listType != "" {
		tt := model.TaskType(listType)
		filter.Type = &tt
	}
	if listStatus != "" {
		ts := model.TaskStatus(listStatus)
		filter.Status = &ts
	}
	if listPriority != "" {
		tp := model.TaskPriority(listPriority)
		filter.Priority = &tp
	}
	if listAssignee != "" {
		filter.Assignee = &listAssignee
	}

	tasks, err := a.lifecycle.List(context.Background(), filter, a.actor)
	if err != nil {
		return err
	}
	printTaskTable(tasks)
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.lifecycle.Get(context.Background(), args[0], a.actor)
	if err != nil {
		return err
	}

	fmt.Printf("ID:        %s\n", t.ID)
	fmt.Printf("Title:     %s\n", t.Title)
	fmt.Printf("Type:      %s\n", t.Type)
	fmt.Printf("Status:    %s\n", t.Status)
	fmt.Printf("Priority:  %s\n", t.Priority)
	if t.DueDate != nil {
		fmt.Printf("Due:       %s\n", t.DueDate.Format("2006-01-02"))
	}
	fmt.Printf("Creator:   %s\n", t.CreatedBy)
	if t.AssignedTo != nil {
		fmt.Printf("Assignee:  %s\n", *t.AssignedTo)
	}
	if t.Description != "" {
		fmt.Printf("\n%s\n", t.Description)
	}
	if len(t.Prerequisites) > 0 {
		fmt.Println("\nPrerequisites:")
		for _, p := range t.Prerequisites {
			fmt.Printf("  %s  [%s] %s\n", p.ID, p.Status, p.Title)
		}
	}
	return nil
}

func runTaskUpdate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var in lifecycle.UpdateInput
	if cmd.Flags().Changed("title") {
		in.Title = &updTitle
	}
	if cmd.Flags().Changed("desc") {
		in.Description = &updDesc
	}
	if cmd.Flags().Changed("type") {
		tt := model.TaskType(updType)
		in.Type = &tt
	}
	if cmd.Flags().Changed("priority") {
		tp := model.TaskPriority(updPriority)
		in.Priority = &tp
	}
	if cmd.Flags().Changed("due") {
		due, err := time.Parse("2006-01-02", updDue)
		if err != nil {
			return fmt.Errorf("parsing --due: %w", err)
		}
		in.DueDate = &due
	}
	if cmd.Flags().Changed("assignee") {
		in.AssignedTo = &updAssignee
	}
	if cmd.Flags().Changed("depends-on") {
		prereqs := updPrereqs
		in.PrerequisiteIDs = &prereqs
	}

	t, err := a.lifecycle.Update(context.Background(), args[0], in, a.actor)
	if err != nil {
		return err
	}
	fmt.Printf("Updated task %s (%s)\n", t.ID, t.Status)
	return nil
}

func runTaskStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.lifecycle.Transition(context.Background(), args[0], model.TaskStatus(args[1]), a.actor)
	if err != nil {
		return err
	}
	if string(t.Status) != args[1] {
		fmt.Printf("Task %s stays %s: incomplete prerequisites\n", t.ID, t.Status)
		return nil
	}
	fmt.Printf("Task %s is now %s\n", t.ID, t.Status)
	return nil
}

func runTaskAssign(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.lifecycle.Assign(context.Background(), args[0], args[1], a.actor)
	if err != nil {
		return err
	}
	fmt.Printf("Task %s assigned to %s (%s)\n", t.ID, args[1], t.Status)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.lifecycle.Delete(context.Background(), args[0], a.actor); err != nil {
		return err
	}
	fmt.Printf("Task %s moved to trash\n", args[0])
	return nil
}

func runTaskRestore(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.lifecycle.Restore(context.Background(), args[0], a.actor)
	if err != nil {
		return err
	}
	fmt.Printf("Task %s restored (%s)\n", t.ID, t.Status)
	return nil
}

func runTaskPurge(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.lifecycle.ForceDelete(context.Background(), args[0], a.actor); err != nil {
		return err
	}
	fmt.Printf("Task %s permanently deleted\n", args[0])
	return nil
}

func runTaskBlocked(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.lifecycle.Blocked(context.Background(), a.actor)
	if err != nil {
		return err
	}
	printTaskTable(tasks)
	return nil
}

func runTaskComment(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.lifecycle.AddComment(context.Background(), args[0], args[1], a.actor)
	if err != nil {
		return err
	}
	fmt.Printf("Comment %s added\n", c.ID)
	return nil
}

func runTaskAttach(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	att, err := a.lifecycle.AttachFile(context.Background(), args[0], filepath.Base(args[1]), f, a.actor)
	if err != nil {
		return err
	}
	fmt.Printf("Attachment %s stored at %s\n", att.ID, att.FilePath)
	return nil
}

func printTaskTable(tasks []model.Task) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, due, t.Title)
	}
	w.Flush()
}
