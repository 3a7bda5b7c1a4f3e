package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGenericError     = 1
	ExitConfigInvalid    = 2
	ExitStoreUnavailable = 3
	ExitBindFailure      = 4
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	ConfigPath string
	Dir        string
	JSON       bool
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:           "indexchat",
	Short:         "Chat backend that answers index questions with Gemini and a snapshot store",
	Long:          "indexchat serves a single-turn chat endpoint. Gemini may call get_latest_index_snapshot, which reads the newest snapshot for an index from MongoDB or SQLite.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "config file path (default: .indexchat.toml)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Dir, "dir", ".", "directory holding the config file and .env files")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "emit JSON log lines for automation")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Verbose, "verbose", false, "log debug detail, including tool arguments and results")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Quiet, "quiet", false, "only log warnings and errors")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. Use ExitCode to map the error to a process exit code.
func Execute() error {
	return rootCmd.Execute()
}

// exitError carries the process exit code alongside the cause.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitGenericError
}

// newLogger builds the process logger: text on w by default, JSON with --json.
func newLogger(w io.Writer, flags GlobalFlags) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case flags.Verbose:
		level = slog.LevelDebug
	case flags.Quiet:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if flags.JSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func stderrLogger() *slog.Logger {
	return newLogger(os.Stderr, globalFlags)
}
