package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

var smartListCreateCmd = &cobra.Command{
	Use:   "smart-list-create <name>",
	Short: "Create a smart list with its own remote collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		result, err := commands.NewSmartListCreateCommand(GetEnv(), args[0], key).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var smartListShowCmd = &cobra.Command{
	Use:   "smart-list-show [ref-id...]",
	Short: "List smart lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewSmartListShowCommand(GetEnv(), args, showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var smartListTagCreateCmd = &cobra.Command{
	Use:   "smart-list-tag-create <smart-list-ref-id> <name>",
	Short: "Add a tag to a smart list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewSmartListTagCreateCommand(GetEnv(), args[0], args[1]).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var smartListItemCreateCmd = &cobra.Command{
	Use:   "smart-list-item-create <smart-list-ref-id> <name>",
	Short: "Add an item to a smart list",
	Long: `Add an item to a smart list. Tags are given by name and must exist.

Examples:
  jupiter smart-list-item-create 2 "Dune" --tag sci-fi --url https://example.com/dune`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := commands.SmartListItemArgs{SmartList: args[0], Name: args[1]}
		a.IsDone, _ = cmd.Flags().GetBool("done")
		a.Tags, _ = cmd.Flags().GetStringSlice("tag")
		a.URL, _ = cmd.Flags().GetString("url")

		result, err := commands.NewSmartListItemCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var smartListItemUpdateCmd = &cobra.Command{
	Use:   "smart-list-item-update <ref-id>",
	Short: "Update a smart list item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := commands.SmartListItemUpdate{
			Name: updateFlag(cmd, "name"),
			URL:  updateFlag(cmd, "url"),
		}
		if cmd.Flags().Changed("done") {
			v, _ := cmd.Flags().GetBool("done")
			u.IsDone = domain.Set(v)
		}
		if cmd.Flags().Changed("tag") {
			tags, _ := cmd.Flags().GetStringSlice("tag")
			u.Tags = domain.Set(tags)
		}
		result, err := commands.NewSmartListItemUpdateCommand(GetEnv(), args[0], u).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var smartListItemShowCmd = &cobra.Command{
	Use:   "smart-list-item-show <smart-list-ref-id> [ref-id...]",
	Short: "List the items of a smart list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewSmartListItemShowCommand(GetEnv(), args[0], args[1:], showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	smartListCreateCmd.Flags().String("key", "", "short key (default derived from the name)")
	for _, c := range []*cobra.Command{smartListItemCreateCmd, smartListItemUpdateCmd} {
		c.Flags().Bool("done", false, "mark the item done")
		c.Flags().StringSlice("tag", nil, "tag names")
		c.Flags().String("url", "", "link")
	}
	smartListItemUpdateCmd.Flags().String("name", "", "new name")
	addShowFlags(smartListShowCmd)
	addShowFlags(smartListItemShowCmd)

	rootCmd.AddCommand(smartListCreateCmd, smartListShowCmd, smartListTagCreateCmd,
		smartListItemCreateCmd, smartListItemUpdateCmd, smartListItemShowCmd)
	rootCmd.AddCommand(lifecycleCommands("smart-list", "smart list", domain.FamilySmartList)...)
	rootCmd.AddCommand(lifecycleCommands("smart-list-tag", "smart list tag", domain.FamilySmartListTag)...)
	rootCmd.AddCommand(lifecycleCommands("smart-list-item", "smart list item", domain.FamilySmartListItem)...)
}
