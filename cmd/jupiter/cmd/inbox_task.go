package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

var inboxTaskCreateCmd = &cobra.Command{
	Use:   "inbox-task-create <name>",
	Short: "Create an inbox task",
	Long: `Create an inbox task and publish it to the remote inbox.

Examples:
  jupiter inbox-task-create "Buy milk"
  jupiter inbox-task-create "Buy paint" --big-plan 3 --due-date 2022-06-01
  jupiter inbox-task-create "File taxes" --project home --eisen important-and-urgent`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := commands.InboxTaskArgs{Name: args[0]}
		a.Project, _ = cmd.Flags().GetString("project")
		a.BigPlan, _ = cmd.Flags().GetString("big-plan")
		a.Status, _ = cmd.Flags().GetString("status")
		a.Eisen, _ = cmd.Flags().GetString("eisen")
		a.Difficulty, _ = cmd.Flags().GetString("difficulty")
		a.ActionableDate, _ = cmd.Flags().GetString("actionable-date")
		a.DueDate, _ = cmd.Flags().GetString("due-date")
		a.Notes, _ = cmd.Flags().GetString("notes")

		result, err := commands.NewInboxTaskCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var inboxTaskUpdateCmd = &cobra.Command{
	Use:   "inbox-task-update <ref-id>",
	Short: "Update an inbox task",
	Long: `Update the fields given as flags. Pass an empty value to clear an
optional field.

Examples:
  jupiter inbox-task-update 12 --status done
  jupiter inbox-task-update 12 --due-date ""`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := commands.InboxTaskUpdate{
			Name:           updateFlag(cmd, "name"),
			Project:        updateFlag(cmd, "project"),
			BigPlan:        updateFlag(cmd, "big-plan"),
			Status:         updateFlag(cmd, "status"),
			Eisen:          updateFlag(cmd, "eisen"),
			Difficulty:     updateFlag(cmd, "difficulty"),
			ActionableDate: updateFlag(cmd, "actionable-date"),
			DueDate:        updateFlag(cmd, "due-date"),
			Notes:          updateFlag(cmd, "notes"),
		}
		result, err := commands.NewInboxTaskUpdateCommand(GetEnv(), args[0], u).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var inboxTaskShowCmd = &cobra.Command{
	Use:   "inbox-task-show [ref-id...]",
	Short: "List inbox tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewInboxTaskShowCommand(GetEnv(), args, showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var inboxTaskRemoteIDCmd = &cobra.Command{
	Use:   "inbox-task-remote-id <ref-id>",
	Short: "Print the remote item id of an inbox task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewInboxTaskRemoteIDCommand(GetEnv(), args[0]).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.RemoteID)
		return nil
	},
}

func addInboxTaskFlags(cmd *cobra.Command) {
	cmd.Flags().String("project", "", "project key or ref id")
	cmd.Flags().String("big-plan", "", "big plan ref id")
	cmd.Flags().String("status", "", "not-started, accepted, recurring, in-progress, blocked, not-done or done")
	cmd.Flags().String("eisen", "", "regular, important, urgent or important-and-urgent")
	cmd.Flags().String("difficulty", "", "easy, medium or hard")
	cmd.Flags().String("actionable-date", "", "YYYY-MM-DD")
	cmd.Flags().String("due-date", "", "YYYY-MM-DD")
	cmd.Flags().String("notes", "", "free text")
}

func init() {
	addInboxTaskFlags(inboxTaskCreateCmd)
	addInboxTaskFlags(inboxTaskUpdateCmd)
	inboxTaskUpdateCmd.Flags().String("name", "", "new name")
	addShowFlags(inboxTaskShowCmd)

	rootCmd.AddCommand(inboxTaskCreateCmd, inboxTaskUpdateCmd, inboxTaskShowCmd, inboxTaskRemoteIDCmd)
	rootCmd.AddCommand(lifecycleCommands("inbox-task", "inbox task", domain.FamilyInboxTask)...)
}
