package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

var bigPlanCreateCmd = &cobra.Command{
	Use:   "big-plan-create <name>",
	Short: "Create a big plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := commands.BigPlanArgs{Name: args[0]}
		a.Project, _ = cmd.Flags().GetString("project")
		a.Status, _ = cmd.Flags().GetString("status")
		a.ActionableDate, _ = cmd.Flags().GetString("actionable-date")
		a.DueDate, _ = cmd.Flags().GetString("due-date")

		result, err := commands.NewBigPlanCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var bigPlanUpdateCmd = &cobra.Command{
	Use:   "big-plan-update <ref-id>",
	Short: "Update a big plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := commands.BigPlanUpdate{
			Name:           updateFlag(cmd, "name"),
			Project:        updateFlag(cmd, "project"),
			Status:         updateFlag(cmd, "status"),
			ActionableDate: updateFlag(cmd, "actionable-date"),
			DueDate:        updateFlag(cmd, "due-date"),
		}
		result, err := commands.NewBigPlanUpdateCommand(GetEnv(), args[0], u).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var bigPlanShowCmd = &cobra.Command{
	Use:   "big-plan-show [ref-id...]",
	Short: "List big plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewBigPlanShowCommand(GetEnv(), args, showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func addBigPlanFlags(cmd *cobra.Command) {
	cmd.Flags().String("project", "", "project key or ref id")
	cmd.Flags().String("status", "", "big plan status")
	cmd.Flags().String("actionable-date", "", "YYYY-MM-DD")
	cmd.Flags().String("due-date", "", "YYYY-MM-DD")
}

func init() {
	addBigPlanFlags(bigPlanCreateCmd)
	addBigPlanFlags(bigPlanUpdateCmd)
	bigPlanUpdateCmd.Flags().String("name", "", "new name")
	addShowFlags(bigPlanShowCmd)

	rootCmd.AddCommand(bigPlanCreateCmd, bigPlanUpdateCmd, bigPlanShowCmd)
	rootCmd.AddCommand(lifecycleCommands("big-plan", "big plan", domain.FamilyBigPlan)...)
}
