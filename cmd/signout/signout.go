// Package signout provides the signout command.
package signout

import (
	"context"

	"github.com/TheHighestBit/CoDriver/cmd"
	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "signout",
	Short: `Forget the stored Google Drive token.`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			f, err := cmd.NewFs(command)
			if err != nil {
				return err
			}
			if err := f.SignOut(ctx); err != nil {
				return err
			}
			fs.Logf(f, "Signed out")
			return nil
		})
	},
}
