// Package upload provides the upload command.
package upload

import (
	"context"

	"github.com/TheHighestBit/CoDriver/cmd"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "upload local/path gdrive:/folder",
	Short: `Upload a local file or directory into a Drive folder.`,
	Long: `
Uploads a file, or a directory with everything in it, into an existing
Drive folder. Files up to --upload-cutoff go in a single request,
larger ones are sent in --chunk-size pieces.

Drive allows several items with the same name in a folder so
uploading twice makes a second copy.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 2, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			src, err := cmd.LocalPath(args[0])
			if err != nil {
				return err
			}
			f, err := cmd.NewFs(command)
			if err != nil {
				return err
			}
			if err := cmd.Prime(ctx, f, args[1]); err != nil {
				return err
			}
			return f.Upload(ctx, src, args[1])
		})
	},
}
