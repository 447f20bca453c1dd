package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthkeep/hearthkeep/internal/api"
	"github.com/hearthkeep/hearthkeep/internal/model"
	"github.com/hearthkeep/hearthkeep/internal/tasksync"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the shared task list",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAdd,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskToggle,
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Reopen a completed task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskToggle,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

func init() {
	taskListCmd.Flags().String("filter", "pending", "pending, completed, or all")
	taskListCmd.Flags().Int64("assignee", 0, "Only tasks assigned to this member id")

	taskAddCmd.Flags().String("desc", "", "Description")
	taskAddCmd.Flags().String("category", "", "Category")
	taskAddCmd.Flags().Int("points", 0, "Points awarded on completion")
	taskAddCmd.Flags().Int64("assign", 0, "Member id to assign the task to")
	taskAddCmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskUndoCmd)
	taskCmd.AddCommand(taskRmCmd)
}

func runTaskList(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	syncer, err := loadSyncer(ctx)
	if err != nil {
		return err
	}
	defer syncer.Teardown()

	filter, _ := cmd.Flags().GetString("filter")
	if filter != string(tasksync.FilterPending) {
		if err := syncer.SetFilter(ctx, tasksync.Filter(filter)); err != nil {
			return describeSyncError(err)
		}
	}
	if assignee, _ := cmd.Flags().GetInt64("assignee"); assignee != 0 {
		if err := syncer.SetMemberFilter(ctx, &assignee); err != nil {
			return describeSyncError(err)
		}
	}

	members := make(map[int64]string)
	for _, m := range syncer.Members() {
		members[m.ID] = m.DisplayName
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tPOINTS\tASSIGNEE\tDUE")
	for _, t := range syncer.Tasks() {
		assignee := "-"
		if t.AssignedTo != nil {
			if name, ok := members[*t.AssignedTo]; ok {
				assignee = name
			} else {
				assignee = strconv.FormatInt(*t.AssignedTo, 10)
			}
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", t.ID, t.Status, t.Title, t.Points, assignee, due)
	}
	return w.Flush()
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	syncer, err := loadSyncer(ctx)
	if err != nil {
		return err
	}
	defer syncer.Teardown()

	draft := api.TaskDraft{Title: args[0]}
	draft.Description, _ = cmd.Flags().GetString("desc")
	draft.Category, _ = cmd.Flags().GetString("category")
	draft.Points, _ = cmd.Flags().GetInt("points")

	if assign, _ := cmd.Flags().GetInt64("assign"); assign != 0 {
		draft.AssignedTo = &assign
	}
	if due, _ := cmd.Flags().GetString("due"); due != "" {
		d, err := time.Parse("2006-01-02", due)
		if err != nil {
			return fmt.Errorf("invalid due date %q, want YYYY-MM-DD", due)
		}
		draft.DueDate = &d
	}

	task, err := syncer.Create(ctx, draft)
	if err != nil {
		return describeSyncError(err)
	}

	fmt.Printf("Added task %d: %s\n", task.ID, task.Title)
	return nil
}

func runTaskToggle(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %q", args[0])
	}

	ctx, cancel := cmdContext()
	defer cancel()

	syncer, err := loadSyncer(ctx)
	if err != nil {
		return err
	}
	defer syncer.Teardown()

	// done and undo both flip completion; show all statuses so the
	// target is visible either way.
	if err := syncer.SetFilter(ctx, tasksync.FilterAll); err != nil {
		return describeSyncError(err)
	}
	if err := syncer.Toggle(ctx, id); err != nil {
		return describeSyncError(err)
	}

	for _, t := range syncer.Tasks() {
		if t.ID == id {
			if t.Status == model.StatusCompleted {
				fmt.Printf("Completed task %d: %s\n", t.ID, t.Title)
			} else {
				fmt.Printf("Reopened task %d: %s\n", t.ID, t.Title)
			}
			return nil
		}
	}
	fmt.Printf("Toggled task %d\n", id)
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %q", args[0])
	}

	ctx, cancel := cmdContext()
	defer cancel()

	syncer, err := loadSyncer(ctx)
	if err != nil {
		return err
	}
	defer syncer.Teardown()

	if err := syncer.Delete(ctx, id); err != nil {
		return describeSyncError(err)
	}

	fmt.Printf("Deleted task %d\n", id)
	return nil
}
