package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"indexchat/internal/chat"
)

var (
	replyColor   = color.New(color.FgCyan)
	toolColor    = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failureColor = color.New(color.FgRed)
)

var chatHistoryFile string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive prompt; every line is an independent single-turn request",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatHistoryFile, "history", defaultHistoryFile(), "readline history file")
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".indexchat_history")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            color.GreenString("➤ "),
		HistoryFile:       chatHistoryFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "bye",
		Stdout:            cmd.OutOrStdout(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	fmt.Fprintln(out, "Ask about an index (e.g. \"latest for 2003RealEstate\"). Ctrl+D to quit.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		printResult(out, a.service.Handle(ctx, line))
	}
}

func printResult(w io.Writer, res chat.Result) {
	if res.Call != nil {
		toolColor.Fprintf(w, "  tool: %s %v\n", res.Call.Name, res.Call.Args)
	}
	switch res.Outcome {
	case chat.OutcomeOverloaded, chat.OutcomeNotFound, chat.OutcomeUnknownTool:
		warnColor.Fprintln(w, res.Reply)
	case chat.OutcomeInternalError:
		failureColor.Fprintln(w, res.Reply)
	default:
		replyColor.Fprintln(w, res.Reply)
	}
}
