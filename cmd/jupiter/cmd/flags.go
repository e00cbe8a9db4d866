package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

// updateFlag turns a string flag into an update action. An unset flag keeps
// the field; an explicit empty value clears it.
func updateFlag(cmd *cobra.Command, name string) domain.UpdateAction[string] {
	if !cmd.Flags().Changed(name) {
		return domain.Keep[string]()
	}
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return domain.Clear[string]()
	}
	return domain.Set(v)
}

func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

// addGenParamFlags registers the recurrence flags shared by habits, chores,
// metrics and catch-ups
func addGenParamFlags(cmd *cobra.Command) {
	cmd.Flags().String("period", "", "daily, weekly, monthly, quarterly or yearly")
	cmd.Flags().String("eisen", "regular", "regular, important, urgent or important-and-urgent")
	cmd.Flags().String("difficulty", "", "easy, medium or hard")
	cmd.Flags().Int("actionable-from-day", 0, "day of the period the task becomes actionable")
	cmd.Flags().Int("actionable-from-month", 0, "month of the period the task becomes actionable")
	cmd.Flags().Int("due-at-day", 0, "day of the period the task is due")
	cmd.Flags().Int("due-at-month", 0, "month of the period the task is due")
	cmd.Flags().String("skip-rule", "", "none, even, odd, \"every N [offset K]\" or \"in I,J\"")
}

func genParamArgs(cmd *cobra.Command) commands.GenParamsArgs {
	period, _ := cmd.Flags().GetString("period")
	eisen, _ := cmd.Flags().GetString("eisen")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	skip, _ := cmd.Flags().GetString("skip-rule")
	return commands.GenParamsArgs{
		Period:              period,
		Eisen:               eisen,
		Difficulty:          difficulty,
		ActionableFromDay:   intFlag(cmd, "actionable-from-day"),
		ActionableFromMonth: intFlag(cmd, "actionable-from-month"),
		DueAtDay:            intFlag(cmd, "due-at-day"),
		DueAtMonth:          intFlag(cmd, "due-at-month"),
		SkipRule:            skip,
	}
}

// genParamsChanged reports whether any recurrence flag was given
func genParamsChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"period", "eisen", "difficulty", "actionable-from-day", "actionable-from-month", "due-at-day", "due-at-month", "skip-rule"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// lifecycleCommands builds the archive and remove commands of a family
func lifecycleCommands(prefix, label string, family domain.Family) []*cobra.Command {
	archive := &cobra.Command{
		Use:   prefix + "-archive <ref-id>",
		Short: fmt.Sprintf("Archive a %s and everything under it", label),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := commands.NewArchiveCommand(GetEnv(), family, args[0]).Execute(cmd.Context())
			if result != nil {
				fmt.Println(result.Message)
			}
			return err
		},
	}
	remove := &cobra.Command{
		Use:   prefix + "-remove <ref-id>",
		Short: fmt.Sprintf("Delete a %s and everything under it, locally and remotely", label),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := commands.NewRemoveCommand(GetEnv(), family, args[0]).Execute(cmd.Context())
			if result != nil {
				fmt.Println(result.Message)
			}
			return err
		},
	}
	return []*cobra.Command{archive, remove}
}

func addShowFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("show-archived", false, "include archived entries")
}

func showArchived(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("show-archived")
	return v
}
