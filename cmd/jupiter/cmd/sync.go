package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile local entities with their remote collections",
	Long: `Reconcile local entities with their remote collections.

Each target is compared item by item. When both sides changed, --prefer
decides which one wins. Without --target every family is synced.

Examples:
  jupiter sync
  jupiter sync --target inbox-tasks --target big-plans --prefer local
  jupiter sync --target habits --filter 4 --filter 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, _ := cmd.Flags().GetStringSlice("target")
		prefer, _ := cmd.Flags().GetString("prefer")
		c := commands.NewSyncCommand(GetEnv(), targets, prefer)
		c.DropAllRemote, _ = cmd.Flags().GetBool("drop-all-remote")
		c.SyncEvenIfNotModified, _ = cmd.Flags().GetBool("sync-even-if-not-modified")
		c.Filter, _ = cmd.Flags().GetStringSlice("filter")

		result, err := c.Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringSlice("target", nil, "families to sync (default all)")
	syncCmd.Flags().String("prefer", "remote", "side that wins conflicts: local or remote")
	syncCmd.Flags().Bool("drop-all-remote", false, "delete every remote item and recreate from local")
	syncCmd.Flags().Bool("sync-even-if-not-modified", false, "rewrite every property of paired items")
	syncCmd.Flags().StringSlice("filter", nil, "restrict to these ref ids")
}
