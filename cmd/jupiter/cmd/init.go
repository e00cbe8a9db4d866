package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the workspace locally and on the remote",
	Long: `Create the workspace and its default project.

The workspace page is created under the given remote space first; nothing
is stored locally when the remote rejects the token.

Examples:
  jupiter init --name Life --timezone Europe/Rome --remote-space 1f2e... --remote-token secret_...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		timezone, _ := cmd.Flags().GetString("timezone")
		space, _ := cmd.Flags().GetString("remote-space")
		token, _ := cmd.Flags().GetString("remote-token")
		project, _ := cmd.Flags().GetString("project-name")

		result, err := commands.NewInitCommand(GetEnv(), name, timezone, space, token, project).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("name", "", "workspace name")
	initCmd.Flags().String("timezone", "", "IANA timezone, e.g. Europe/Rome")
	initCmd.Flags().String("remote-space", "", "id of the remote page the workspace lives under")
	initCmd.Flags().String("remote-token", "", "remote integration token")
	initCmd.Flags().String("project-name", "Work", "name of the default project")
	initCmd.MarkFlagRequired("name")
	initCmd.MarkFlagRequired("timezone")
	initCmd.MarkFlagRequired("remote-space")
	initCmd.MarkFlagRequired("remote-token")
}
