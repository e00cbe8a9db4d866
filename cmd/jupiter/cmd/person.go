package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jupiter/internal/application/commands"
	"jupiter/internal/domain"
)

var personCreateCmd = &cobra.Command{
	Use:   "person-create <name>",
	Short: "Add a person",
	Long: `Add a person. A birthday makes gen emit a reminder every year; a
catch-up period makes it emit a task to get in touch.

Examples:
  jupiter person-create "Ada" --relationship friend --birthday "10 Dec"
  jupiter person-create "Mom" --relationship family --period weekly`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := commands.PersonArgs{Name: args[0]}
		a.Relationship, _ = cmd.Flags().GetString("relationship")
		a.Birthday, _ = cmd.Flags().GetString("birthday")
		a.CatchUpProject, _ = cmd.Flags().GetString("project")
		if cmd.Flags().Changed("period") {
			params := genParamArgs(cmd)
			a.CatchUp = &params
		}
		result, err := commands.NewPersonCreateCommand(GetEnv(), a).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var personUpdateCmd = &cobra.Command{
	Use:   "person-update <ref-id>",
	Short: "Update a person",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := commands.PersonUpdate{
			Name:         updateFlag(cmd, "name"),
			Relationship: updateFlag(cmd, "relationship"),
			Birthday:     updateFlag(cmd, "birthday"),
		}
		if clear, _ := cmd.Flags().GetBool("no-catch-up"); clear {
			u.CatchUp = domain.Clear[commands.GenParamsArgs]()
		} else if genParamsChanged(cmd) {
			u.CatchUp = domain.Set(genParamArgs(cmd))
		}
		result, err := commands.NewPersonUpdateCommand(GetEnv(), args[0], u).Execute(cmd.Context())
		if result != nil {
			fmt.Println(result.Message)
		}
		return err
	},
}

var personShowCmd = &cobra.Command{
	Use:   "person-show [ref-id...]",
	Short: "List people",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewPersonShowCommand(GetEnv(), args, showArchived(cmd)).Execute(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(result.Message)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{personCreateCmd, personUpdateCmd} {
		addGenParamFlags(c)
		c.Flags().String("relationship", "", "family, friend, acquaintance, school-buddy, work-buddy, colleague or other")
		c.Flags().String("birthday", "", "day and month, e.g. \"10 Dec\" or 12/10")
	}
	personCreateCmd.Flags().String("project", "", "project of the catch-up tasks")
	personUpdateCmd.Flags().String("name", "", "new name")
	personUpdateCmd.Flags().Bool("no-catch-up", false, "stop catch-up tasks")
	addShowFlags(personShowCmd)

	rootCmd.AddCommand(personCreateCmd, personUpdateCmd, personShowCmd)
	rootCmd.AddCommand(lifecycleCommands("person", "person", domain.FamilyPerson)...)
}
