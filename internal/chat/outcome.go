package chat

import (
	"context"
	"io"
	"log/slog"

	"indexchat/internal/model"
)

// Outcome is the terminal state a chat turn ended in.
type Outcome int

const (
	OutcomeDirectAnswer Outcome = iota
	OutcomeToolAnswer
	OutcomeUnknownTool
	OutcomeNotFound
	OutcomeOverloaded
	OutcomeInternalError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDirectAnswer:
		return "direct_answer"
	case OutcomeToolAnswer:
		return "tool_answer"
	case OutcomeUnknownTool:
		return "unknown_tool"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeOverloaded:
		return "overloaded"
	case OutcomeInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Result is what one chat turn produced. Reply is always user-presentable;
// Err is set only for OutcomeOverloaded and OutcomeInternalError.
type Result struct {
	Outcome  Outcome
	Reply    string
	Attempts int
	Call     *model.ToolCall
	Err      error
}

// User-facing replies.
const (
	overloadedReply = "Gemini is temporarily overloaded. Please try again in a moment."
)

func unknownToolReply(name string) string {
	return "The model requested an unknown tool: " + name
}

func notFoundReply(indexID string) string {
	return "No data found for index '" + indexID + "'."
}

func internalErrorReply(err error) string {
	return "Internal error in tool handling: " + err.Error()
}

type loggerKey struct{}

// ContextWithLogger attaches a request-scoped logger that the service uses
// instead of its own.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom returns the logger attached with ContextWithLogger, or one that
// discards everything.
func LoggerFrom(ctx context.Context) *slog.Logger {
	return loggerFrom(ctx, discardLogger)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func loggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return fallback
}
