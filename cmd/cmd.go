// Package cmd implements the codriver command
//
// It is in a sub package so it's internals can be re-used elsewhere
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/TheHighestBit/CoDriver/backend/drive"
	"github.com/TheHighestBit/CoDriver/fs"
	"github.com/TheHighestBit/CoDriver/fs/config"
	"github.com/TheHighestBit/CoDriver/fs/config/configstruct"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Globals
var (
	// Flags
	configPath   string
	verbose      int
	quiet        bool
	showProgress bool
	// Errors
	errorNotEnoughArguments = errors.New("not enough arguments")
	errorTooManyArguments   = errors.New("too many arguments")
)

const (
	exitCodeSuccess = iota
	exitCodeUsageError
	exitCodeUncategorizedError
	exitCodeAuthError
	exitCodeNotCached
	exitCodeRemoteError
	exitCodeLocalError
	exitCodeUnsupported
	exitCodeTooDeep
)

// Root is the main codriver command
var Root = &cobra.Command{
	Use:   "codriver",
	Short: "Work with Google Drive using gdrive: paths",
	Long: `
CoDriver addresses Google Drive with paths like gdrive:/folder/file.

Drive only knows items by ID so a path can be used once it has been
seen by a listing, a search or a create. Each command lists the
parent folders of the remote paths it is given before it starts.
`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	addFlags(Root.PersistentFlags())
}

// addFlags adds the global and backend flags to flagSet. Backend
// flags are only read if the user sets them so their defaults are
// for the help text.
func addFlags(flagSet *pflag.FlagSet) {
	def := drive.DefaultOptions()
	logLevel := fs.NewConfig().LogLevel
	flagSet.StringVar(&configPath, "config", config.DefaultPath(), "Config file")
	flagSet.CountVarP(&verbose, "verbose", "v", "Print lots more stuff (repeat for more)")
	flagSet.BoolVarP(&quiet, "quiet", "q", false, "Print as little stuff as possible")
	flagSet.BoolVarP(&showProgress, "progress", "P", false, "Show progress during uploads")
	flagSet.Var(&logLevel, "log-level", "Log level DEBUG|INFO|NOTICE|ERROR")
	flagSet.Bool("use-json-log", false, "Use json log format")
	flagSet.String("client-secret-file", def.ClientSecretFile, "Google OAuth client secret JSON")
	flagSet.String("token-file", def.TokenFile, "Where the OAuth token is stored")
	flagSet.Var(&def.UploadCutoff, "upload-cutoff", "Files up to this size are sent in a single request")
	flagSet.Var(&def.ChunkSize, "chunk-size", "Chunk size for resumable uploads, a multiple of 256Ki")
	flagSet.Int64("list-chunk", def.ListChunk, "Size of listing chunk 1-1000, 0 to disable")
	flagSet.Var(&def.PacerMinSleep, "pacer-min-sleep", "Minimum time to sleep between API calls")
	flagSet.Int("pacer-burst", def.PacerBurst, "Number of API calls to allow without sleeping")
	flagSet.Int("max-depth", def.MaxDepth, "Deepest folder tree walked by size, upload and copy")
	flagSet.Var(&def.CacheTTL, "cache-ttl", "How long cached paths stay valid, 0 for ever")
}

// setVerbosity applies -v and -q to fs.Config
func setVerbosity(flagSet *pflag.FlagSet) error {
	if verbose > 0 && quiet {
		return errors.New("can't set -v and -q")
	}
	if flagSet != nil {
		if f := flagSet.Lookup("log-level"); f != nil && f.Changed && (verbose > 0 || quiet) {
			return errors.New("can't set -v or -q with --log-level")
		}
	}
	switch {
	case verbose >= 2:
		fs.Config.LogLevel = fs.LogLevelDebug
	case verbose == 1:
		fs.Config.LogLevel = fs.LogLevelInfo
	case quiet:
		fs.Config.LogLevel = fs.LogLevelError
	}
	return nil
}

// NewFs reads the config, starts logging and makes the Drive Fs
func NewFs(command *cobra.Command, opts ...drive.Option) (*drive.Fs, error) {
	flagSet := command.Flags()
	m, err := config.Load(configPath, flagSet)
	if err != nil {
		return nil, err
	}
	if err := configstruct.Set(m, fs.Config); err != nil {
		return nil, err
	}
	if err := setVerbosity(flagSet); err != nil {
		return nil, err
	}
	fs.InitLogging(os.Stderr)
	fs.Debugf("codriver", "Starting with parameters %q", os.Args)
	if showProgress {
		opts = append([]drive.Option{drive.WithProgress(printProgress(command.ErrOrStderr()))}, opts...)
	}
	return drive.NewFs(m, opts...)
}

// LocalPath makes a local path absolute. Remote paths are returned
// cleaned.
func LocalPath(p string) (string, error) {
	if fs.IsRemote(p) {
		return fs.CleanPath(p), nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrapf(err, "bad local path %q", p)
	}
	return abs, nil
}

// Prime lists the parent folders of remote, top down, so that remote
// and everything above it is in the path cache. Local paths are
// ignored.
func Prime(ctx context.Context, f fs.Provider, remote string) error {
	if !fs.IsRemote(remote) {
		return nil
	}
	var dirs []string
	for dir, leaf := fs.SplitPath(remote); leaf != ""; dir, leaf = fs.SplitPath(dir) {
		dirs = append(dirs, dir)
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		if _, err := f.ReadDir(ctx, dirs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Run the function and exit with a code describing how it went
func Run(command *cobra.Command, f func(ctx context.Context) error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdErr := f(ctx)
	stop()
	reportError(command, cmdErr)
	resolveExitCode(cmdErr)
}

// reportError logs the failure of command, if any
func reportError(command *cobra.Command, err error) {
	if err != nil {
		fs.Errorf(nil, "Failed to %s: %v", command.Name(), err)
	}
}

// CheckArgs checks there are enough arguments and prints a message if not
func CheckArgs(MinArgs, MaxArgs int, cmd *cobra.Command, args []string) {
	if len(args) < MinArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments minimum: you provided %d non flag arguments: %q\n", cmd.Name(), MinArgs, len(args), args)
		resolveExitCode(errorNotEnoughArguments)
	} else if MaxArgs >= 0 && len(args) > MaxArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments maximum: you provided %d non flag arguments: %q\n", cmd.Name(), MaxArgs, len(args), args)
		resolveExitCode(errorTooManyArguments)
	}
}

// exitCode maps err to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitCodeSuccess
	}
	switch errors.Cause(err) {
	case errorNotEnoughArguments, errorTooManyArguments:
		return exitCodeUsageError
	}
	switch fs.KindOf(err) {
	case fs.KindAuth:
		return exitCodeAuthError
	case fs.KindNotCached:
		return exitCodeNotCached
	case fs.KindRemoteCall:
		return exitCodeRemoteError
	case fs.KindLocalIO:
		return exitCodeLocalError
	case fs.KindUnsupported:
		return exitCodeUnsupported
	case fs.KindTooDeep:
		return exitCodeTooDeep
	}
	return exitCodeUncategorizedError
}

func resolveExitCode(err error) {
	os.Exit(exitCode(err))
}

// Main runs codriver interpreting flags and commands out of os.Args
func Main() {
	if err := Root.Execute(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}
