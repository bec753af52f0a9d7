// Package size provides the size command.
package size

import (
	"context"

	"github.com/TheHighestBit/CoDriver/cmd"
	"github.com/spf13/cobra"
)

var asJSON bool

func init() {
	cmd.Root.AddCommand(commandDefinition)
	commandDefinition.Flags().BoolVarP(&asJSON, "json", "", false, "Format output as JSON")
}

var commandDefinition = &cobra.Command{
	Use:   "size gdrive:/path",
	Short: `Print the total size and number of items in a Drive path.`,
	Long: `
Walks the folder tree under the path and prints the total size of the
files in it and the number of items, counting folders and the path
itself.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			f, err := cmd.NewFs(command)
			if err != nil {
				return err
			}
			if err := cmd.Prime(ctx, f, args[0]); err != nil {
				return err
			}
			info, err := f.GetItemSize(ctx, args[0])
			if err != nil {
				return err
			}
			return cmd.PrintSize(command.OutOrStdout(), info, asJSON)
		})
	},
}
