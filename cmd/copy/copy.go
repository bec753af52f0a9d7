// Package copy provides the copy command.
package copy

import (
	"context"
	"path"
	"strings"

	"github.com/TheHighestBit/CoDriver/cmd"
	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "copy source [source...] dest",
	Short: `Copy files and folders between Drive and the local disk.`,
	Long: `
Copies each source into the dest directory. Sources in gdrive: are
downloaded, folders with everything in them, and local sources are
uploaded. All the sources must be on the other side from dest.

For example

    codriver copy gdrive:/photos /home/me/backup

makes /home/me/backup/photos. Copying stops at the first failure.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, -1, command, args)
		cmd.Run(command, func(ctx context.Context) error {
			f, err := cmd.NewFs(command)
			if err != nil {
				return err
			}
			return Copy(ctx, f, args[:len(args)-1], args[len(args)-1])
		})
	},
}

// Copy copies sources into dest
func Copy(ctx context.Context, f fs.Provider, sources []string, dest string) error {
	dest, err := cmd.LocalPath(dest)
	if err != nil {
		return err
	}
	if err := cmd.Prime(ctx, f, dest); err != nil {
		return err
	}
	entries := make([]fs.DirEntry, 0, len(sources))
	for _, src := range sources {
		src, err := cmd.LocalPath(src)
		if err != nil {
			return err
		}
		if err := cmd.Prime(ctx, f, src); err != nil {
			return err
		}
		entries = append(entries, fs.DirEntry{
			Name: path.Base(strings.Replace(src, `\`, "/", -1)),
			Path: src,
		})
	}
	return f.CopyItems(ctx, entries, dest)
}
