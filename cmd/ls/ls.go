// Package ls provides the ls command.
package ls

import (
	"context"

	"github.com/TheHighestBit/CoDriver/cmd"
	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/spf13/cobra"
)

var asJSON bool

func init() {
	cmd.Root.AddCommand(commandDefinition)
	commandDefinition.Flags().BoolVarP(&asJSON, "json", "", false, "Print the listing as JSON")
}

var commandDefinition = &cobra.Command{
	Use:   "ls [gdrive:/path]",
	Short: `List the items in a Drive folder.`,
	Long: `
Lists the direct children of a Drive folder, each with its size,
modification time and name. With no argument the root
folder gdrive: is listed.

With --json each item is printed with name, path, is_dir, size,
extension and last_modified fields.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 1, command, args)
		dir := fs.RootPrefix
		if len(args) > 0 {
			dir = args[0]
		}
		cmd.Run(command, func(ctx context.Context) error {
			f, err := cmd.NewFs(command)
			if err != nil {
				return err
			}
			entries, err := List(ctx, f, dir)
			if err != nil {
				return err
			}
			return cmd.PrintEntries(command.OutOrStdout(), entries, asJSON)
		})
	},
}

// List primes the parents of dir then lists it
func List(ctx context.Context, f fs.Provider, dir string) ([]fs.DirEntry, error) {
	if !fs.IsRemote(dir) {
		return nil, fs.UnsupportedError("ls", dir, "not a gdrive: path")
	}
	if err := cmd.Prime(ctx, f, dir); err != nil {
		return nil, err
	}
	return f.ReadDir(ctx, dir)
}
