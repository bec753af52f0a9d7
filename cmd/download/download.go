// Package download provides the download command.
package download

import (
	"context"
	"fmt"
	"os"

	"github.com/TheHighestBit/CoDriver/cmd"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "download gdrive:/path/file [local dir]",
	Short: `Download a single Drive file.`,
	Long: `
Downloads a file into a local directory, keeping its name, and prints
the path written. The directory defaults to the system temporary
directory.

Use copy to download a folder.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 2, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			toDir := os.TempDir()
			if len(args) > 1 {
				toDir = args[1]
			}
			toDir, err := cmd.LocalPath(toDir)
			if err != nil {
				return err
			}
			f, err := cmd.NewFs(command)
			if err != nil {
				return err
			}
			if err := cmd.Prime(ctx, f, args[0]); err != nil {
				return err
			}
			dst, err := f.Download(ctx, args[0], toDir)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(command.OutOrStdout(), dst)
			return err
		})
	},
}
