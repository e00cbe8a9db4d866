package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Archive finished work and clear archived entities off the remote",
	Long: `Archive done and not-done inbox tasks and done smart list items, then
delete the remote counterpart of every archived entity.

Examples:
  jupiter gc
  jupiter gc --target inbox-tasks --older-than 168h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, _ := cmd.Flags().GetStringSlice("target")
		olderThan, _ := cmd.Flags().GetDuration("older-than")

		result, err := commands.NewGCCommand(GetEnv(), targets, olderThan).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(gcCmd)
	gcCmd.Flags().StringSlice("target", nil, "families to collect (default all)")
	gcCmd.Flags().Duration("older-than", 0, "only collect entries untouched for this long")
}
