package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
)

var workspaceShowCmd = &cobra.Command{
	Use:   "workspace-show",
	Short: "Show the workspace settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewWorkspaceShowCommand(GetEnv()).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "project-create <name>",
	Short: "Create a project",
	Long: `Create a project. Projects are labels: every collection with a Project
property gets the new name as an option.

Examples:
  jupiter project-create "Home"
  jupiter project-create "Side Business" --key biz`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		result, err := commands.NewProjectCreateCommand(GetEnv(), args[0], key).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "project-show [ref-id...]",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewProjectShowCommand(GetEnv(), args).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspaceShowCmd, projectCreateCmd, projectShowCmd)
	projectCreateCmd.Flags().String("key", "", "short key (default derived from the name)")
}
