package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

var habitCreateCmd = &cobra.Command{
	Use:   "habit-create <name>",
	Short: "Create a habit",
	Long: `Create a habit that generates inbox tasks every period.

Examples:
  jupiter habit-create "Hit the gym" --period weekly
  jupiter habit-create "Stretch" --period daily --skip-rule "every 2"
  jupiter habit-create "Run" --period weekly --repeats 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := commands.HabitArgs{Name: args[0], Params: genParamArgs(cmd)}
		a.Project, _ = cmd.Flags().GetString("project")
		a.RepeatsInPeriod, _ = cmd.Flags().GetInt("repeats")

		result, err := commands.NewHabitCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var habitUpdateCmd = &cobra.Command{
	Use:   "habit-update <ref-id>",
	Short: "Update a habit",
	Long: `Update a habit. Recurrence flags replace the whole recurrence; flags
not given fall back to their defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := commands.HabitUpdate{
			Name:    updateFlag(cmd, "name"),
			Project: updateFlag(cmd, "project"),
		}
		if genParamsChanged(cmd) {
			u.Params = domain.Set(genParamArgs(cmd))
		}
		if n := intFlag(cmd, "repeats"); n != nil {
			u.RepeatsInPeriod = domain.Set(*n)
		}
		result, err := commands.NewHabitUpdateCommand(GetEnv(), args[0], u).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var habitShowCmd = &cobra.Command{
	Use:   "habit-show [ref-id...]",
	Short: "List habits",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewHabitShowCommand(GetEnv(), args, showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var choreCreateCmd = &cobra.Command{
	Use:   "chore-create <name>",
	Short: "Create a chore",
	Long: `Create a chore. Chores are like habits but may be limited to a window
and marked must-do, which keeps them generating through vacations.

Examples:
  jupiter chore-create "Water plants" --period weekly --must-do
  jupiter chore-create "Pay rent" --period monthly --due-at-day 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := commands.ChoreArgs{Name: args[0], Params: genParamArgs(cmd)}
		a.Project, _ = cmd.Flags().GetString("project")
		a.MustDo, _ = cmd.Flags().GetBool("must-do")
		a.StartAtDate, _ = cmd.Flags().GetString("start-at-date")
		a.EndAtDate, _ = cmd.Flags().GetString("end-at-date")

		result, err := commands.NewChoreCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var choreUpdateCmd = &cobra.Command{
	Use:   "chore-update <ref-id>",
	Short: "Update a chore",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := commands.ChoreUpdate{
			Name:        updateFlag(cmd, "name"),
			Project:     updateFlag(cmd, "project"),
			StartAtDate: updateFlag(cmd, "start-at-date"),
			EndAtDate:   updateFlag(cmd, "end-at-date"),
		}
		if genParamsChanged(cmd) {
			u.Params = domain.Set(genParamArgs(cmd))
		}
		if cmd.Flags().Changed("must-do") {
			v, _ := cmd.Flags().GetBool("must-do")
			u.MustDo = domain.Set(v)
		}
		result, err := commands.NewChoreUpdateCommand(GetEnv(), args[0], u).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var choreShowCmd = &cobra.Command{
	Use:   "chore-show [ref-id...]",
	Short: "List chores",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewChoreShowCommand(GetEnv(), args, showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

// suspendCommand builds the suspend or unsuspend command of a template family
func suspendCommand(prefix, label string, family domain.Family, suspend bool) *cobra.Command {
	verb, short := "suspend", "Stop generating tasks from a "+label
	if !suspend {
		verb, short = "unsuspend", "Resume generating tasks from a "+label
	}
	return &cobra.Command{
		Use:   prefix + "-" + verb + " <ref-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := commands.NewSuspendCommand(GetEnv(), family, args[0], suspend).Execute(cmd.Context())
			if result != nil {
				fmt.Println(result.Message)
			}
			return err
		},
	}
}

func init() {
	for _, c := range []*cobra.Command{habitCreateCmd, habitUpdateCmd, choreCreateCmd, choreUpdateCmd} {
		addGenParamFlags(c)
		c.Flags().String("project", "", "project key or ref id")
	}
	habitCreateCmd.MarkFlagRequired("period")
	choreCreateCmd.MarkFlagRequired("period")
	for _, c := range []*cobra.Command{habitCreateCmd, habitUpdateCmd} {
		c.Flags().Int("repeats", 0, "tasks generated per period")
	}
	for _, c := range []*cobra.Command{choreCreateCmd, choreUpdateCmd} {
		c.Flags().Bool("must-do", false, "keep generating during vacations")
		c.Flags().String("start-at-date", "", "first day the chore is active, YYYY-MM-DD")
		c.Flags().String("end-at-date", "", "last day the chore is active, YYYY-MM-DD")
	}
	habitUpdateCmd.Flags().String("name", "", "new name")
	choreUpdateCmd.Flags().String("name", "", "new name")
	addShowFlags(habitShowCmd)
	addShowFlags(choreShowCmd)

	rootCmd.AddCommand(habitCreateCmd, habitUpdateCmd, habitShowCmd,
		suspendCommand("habit", "habit", domain.FamilyHabit, true),
		suspendCommand("habit", "habit", domain.FamilyHabit, false))
	rootCmd.AddCommand(lifecycleCommands("habit", "habit", domain.FamilyHabit)...)

	rootCmd.AddCommand(choreCreateCmd, choreUpdateCmd, choreShowCmd,
		suspendCommand("chore", "chore", domain.FamilyChore, true),
		suspendCommand("chore", "chore", domain.FamilyChore, false))
	rootCmd.AddCommand(lifecycleCommands("chore", "chore", domain.FamilyChore)...)
}
