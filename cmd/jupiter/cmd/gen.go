package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate inbox tasks from recurring templates and push tasks",
	Long: `Generate inbox tasks for the period instances containing the given date.

Generation is idempotent: a task already produced for a template, period
instance and repeat is found again instead of duplicated.

Examples:
  jupiter gen
  jupiter gen --period weekly --target habits
  jupiter gen --period daily --date 2022-05-20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		periods, _ := cmd.Flags().GetStringSlice("period")
		targets, _ := cmd.Flags().GetStringSlice("target")
		date, _ := cmd.Flags().GetString("date")
		c := commands.NewGenCommand(GetEnv(), periods, targets, date)
		c.Filter, _ = cmd.Flags().GetStringSlice("filter")

		result, err := c.Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(genCmd)
	genCmd.Flags().StringSlice("period", nil, "periods to generate (default all)")
	genCmd.Flags().StringSlice("target", nil, "habits, chores, metrics, persons or push-tasks (default all)")
	genCmd.Flags().String("date", "", "reference day as YYYY-MM-DD (default today)")
	genCmd.Flags().StringSlice("filter", nil, "restrict to these template ref ids")
}
