// Package mkdir provides the mkdir command.
package mkdir

import (
	"context"
	"path"

	"github.com/TheHighestBit/CoDriver/cmd"
	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "mkdir gdrive:/path/newfolder",
	Short: `Make a Drive folder.`,
	Long: `
Makes a new folder. The parent folder must already exist.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			f, err := cmd.NewFs(command)
			if err != nil {
				return err
			}
			return Mkdir(ctx, f, args[0])
		})
	},
}

// Mkdir creates the folder remote inside its parent
func Mkdir(ctx context.Context, f fs.Provider, remote string) error {
	dir, leaf := fs.SplitPath(remote)
	if !fs.IsRemote(remote) || leaf == "" {
		return fs.UnsupportedError("mkdir", remote, "need a gdrive: path below the root")
	}
	if err := cmd.Prime(ctx, f, remote); err != nil {
		return err
	}
	return f.CreateDir(ctx, path.Join("/", leaf), dir)
}
