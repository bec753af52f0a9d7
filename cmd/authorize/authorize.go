// Package authorize provides the authorize command.
package authorize

import (
	"context"

	"github.com/TheHighestBit/CoDriver/backend/drive"
	"github.com/TheHighestBit/CoDriver/cmd"
	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/lib/oauthutil"
	"github.com/spf13/cobra"
)

var noAutoBrowser bool

func init() {
	cmd.Root.AddCommand(commandDefinition)
	commandDefinition.Flags().BoolVarP(&noAutoBrowser, "auth-no-open-browser", "", false, "Paste the code into the terminal instead of using a local callback")
}

var commandDefinition = &cobra.Command{
	Use:   "authorize",
	Short: `Sign in to Google Drive.`,
	Long: `
Runs the OAuth consent flow if no token is stored and saves the token
for later commands. A stored token which has expired is refreshed.

The client secret file comes from the Google Cloud console.

Use --auth-no-open-browser on a machine without a browser: the consent
link is printed and the code shown after consent is read from the
terminal.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		var opts []drive.Option
		if noAutoBrowser {
			opts = append(opts, drive.WithAuthCode(oauthutil.TerminalAuth(command.InOrStdin(), command.ErrOrStderr())))
		}
		cmd.Run(command, func(ctx context.Context) error {
			f, err := cmd.NewFs(command, opts...)
			if err != nil {
				return err
			}
			if err := f.Authenticate(ctx); err != nil {
				return err
			}
			fs.Logf(f, "Authorized")
			return nil
		})
	},
}
