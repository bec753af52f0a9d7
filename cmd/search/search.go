// Package search provides the search command.
package search

import (
	"context"

	"github.com/TheHighestBit/CoDriver/cmd"
	"github.com/spf13/cobra"
)

var asJSON bool

func init() {
	cmd.Root.AddCommand(commandDefinition)
	commandDefinition.Flags().BoolVarP(&asJSON, "json", "", false, "Print the results as JSON")
}

var commandDefinition = &cobra.Command{
	Use:   "search fragment",
	Short: `Find Drive items whose name contains fragment.`,
	Long: `
Searches the whole drive for untrashed items whose name contains
fragment. Results whose parent folder has already been listed get
their full path, the rest are shown as if they were in the root.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			f, err := cmd.NewFs(command)
			if err != nil {
				return err
			}
			entries, err := f.Search(ctx, args[0])
			if err != nil {
				return err
			}
			return cmd.PrintEntries(command.OutOrStdout(), entries, asJSON)
		})
	},
}
