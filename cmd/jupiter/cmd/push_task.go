package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

var pushTaskCreateCmd = &cobra.Command{
	Use:   "push-task-create <name>",
	Short: "Record a message that gen turns into an inbox task",
	Long: `Record a message pushed from Slack or email. The next gen creates one
inbox task for it, with the message as the task body.

Examples:
  jupiter push-task-create "Review deploy" --user ana --channel ops --message "can you look at the deploy?"
  jupiter push-task-create "Invoice" --kind email --user billing@example.com --message "Invoice attached" --external-id msg-123`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := commands.PushTaskArgs{Name: args[0]}
		a.Kind, _ = cmd.Flags().GetString("kind")
		a.User, _ = cmd.Flags().GetString("user")
		a.Channel, _ = cmd.Flags().GetString("channel")
		a.Message, _ = cmd.Flags().GetString("message")
		a.ExternalID, _ = cmd.Flags().GetString("external-id")
		a.Project, _ = cmd.Flags().GetString("project")

		result, err := commands.NewPushTaskCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var pushTaskShowCmd = &cobra.Command{
	Use:   "push-task-show [ref-id...]",
	Short: "List push tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewPushTaskShowCommand(GetEnv(), args, showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	pushTaskCreateCmd.Flags().String("kind", "slack", "slack or email")
	pushTaskCreateCmd.Flags().String("user", "", "sender")
	pushTaskCreateCmd.Flags().String("channel", "", "channel the message arrived on")
	pushTaskCreateCmd.Flags().String("message", "", "message text")
	pushTaskCreateCmd.Flags().String("external-id", "", "id of the message in its source")
	pushTaskCreateCmd.Flags().String("project", "", "project of the generated task")
	pushTaskCreateCmd.MarkFlagRequired("user")
	pushTaskCreateCmd.MarkFlagRequired("message")
	addShowFlags(pushTaskShowCmd)

	rootCmd.AddCommand(pushTaskCreateCmd, pushTaskShowCmd)
	rootCmd.AddCommand(lifecycleCommands("push-task", "push task", domain.FamilyPushTask)...)
}
