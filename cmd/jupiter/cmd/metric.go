package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

var metricCreateCmd = &cobra.Command{
	Use:   "metric-create <name>",
	Short: "Create a metric",
	Long: `Create a metric. With --period, gen emits a task asking to collect a
value every period.

Examples:
  jupiter metric-create "Weight" --unit kg --period weekly`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := commands.MetricArgs{Name: args[0]}
		a.Unit, _ = cmd.Flags().GetString("unit")
		a.CollectionProject, _ = cmd.Flags().GetString("project")
		if cmd.Flags().Changed("period") {
			params := genParamArgs(cmd)
			a.Collection = &params
		}
		result, err := commands.NewMetricCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var metricShowCmd = &cobra.Command{
	Use:   "metric-show [ref-id...]",
	Short: "List metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewMetricShowCommand(GetEnv(), args, showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var metricEntryCreateCmd = &cobra.Command{
	Use:   "metric-entry-create <metric-ref-id> <value>",
	Short: "Record a metric value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value float64
		if _, err := fmt.Sscanf(args[1], "%g", &value); err != nil {
			return fmt.Errorf("invalid value %q: expected a number", args[1])
		}
		a := commands.MetricEntryArgs{Metric: args[0], Value: value}
		a.CollectionTime, _ = cmd.Flags().GetString("date")
		a.Notes, _ = cmd.Flags().GetString("notes")

		result, err := commands.NewMetricEntryCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var metricEntryShowCmd = &cobra.Command{
	Use:   "metric-entry-show <metric-ref-id> [ref-id...]",
	Short: "List the entries of a metric",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewMetricEntryShowCommand(GetEnv(), args[0], args[1:], showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	addGenParamFlags(metricCreateCmd)
	metricCreateCmd.Flags().String("unit", "", "unit of the values")
	metricCreateCmd.Flags().String("project", "", "project of the collection tasks")
	metricEntryCreateCmd.Flags().String("date", "", "collection day, YYYY-MM-DD (default now)")
	metricEntryCreateCmd.Flags().String("notes", "", "free text")
	addShowFlags(metricShowCmd)
	addShowFlags(metricEntryShowCmd)

	rootCmd.AddCommand(metricCreateCmd, metricShowCmd, metricEntryCreateCmd, metricEntryShowCmd)
	rootCmd.AddCommand(lifecycleCommands("metric", "metric", domain.FamilyMetric)...)
	rootCmd.AddCommand(lifecycleCommands("metric-entry", "metric entry", domain.FamilyMetricEntry)...)
}
