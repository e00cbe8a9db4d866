package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

var vacationCreateCmd = &cobra.Command{
	Use:   "vacation-create <name>",
	Short: "Record a vacation",
	Long: `Record a vacation. Daily and weekly habits and chores that are not
must-do generate nothing for periods the vacation fully covers.

Examples:
  jupiter vacation-create "Sea" --start-date 2022-07-01 --end-date 2022-07-14`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := commands.VacationArgs{Name: args[0]}
		a.StartDate, _ = cmd.Flags().GetString("start-date")
		a.EndDate, _ = cmd.Flags().GetString("end-date")

		result, err := commands.NewVacationCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var vacationUpdateCmd = &cobra.Command{
	Use:   "vacation-update <ref-id>",
	Short: "Update a vacation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := commands.VacationUpdate{
			Name:      updateFlag(cmd, "name"),
			StartDate: updateFlag(cmd, "start-date"),
			EndDate:   updateFlag(cmd, "end-date"),
		}
		result, err := commands.NewVacationUpdateCommand(GetEnv(), args[0], u).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var vacationShowCmd = &cobra.Command{
	Use:   "vacation-show [ref-id...]",
	Short: "List vacations",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewVacationShowCommand(GetEnv(), args, showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{vacationCreateCmd, vacationUpdateCmd} {
		c.Flags().String("start-date", "", "first day, YYYY-MM-DD")
		c.Flags().String("end-date", "", "last day, YYYY-MM-DD")
	}
	vacationCreateCmd.MarkFlagRequired("start-date")
	vacationCreateCmd.MarkFlagRequired("end-date")
	vacationUpdateCmd.Flags().String("name", "", "new name")
	addShowFlags(vacationShowCmd)

	rootCmd.AddCommand(vacationCreateCmd, vacationUpdateCmd, vacationShowCmd)
	rootCmd.AddCommand(lifecycleCommands("vacation", "vacation", domain.FamilyVacation)...)
}
