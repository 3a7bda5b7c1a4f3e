package appstate

import (
	"sync/atomic"
	"time"

	"indexchat/internal/chat"
)

// ChatSnapshot is a point-in-time copy of ChatState, shaped for GET /stats.
type ChatSnapshot struct {
	StartedAt     time.Time `json:"started_at"`
	Turns         int64     `json:"turns"`
	DirectAnswers int64     `json:"direct_answers"`
	ToolAnswers   int64     `json:"tool_answers"`
	UnknownTools  int64     `json:"unknown_tools"`
	NotFound      int64     `json:"not_found"`
	Overloaded    int64     `json:"overloaded"`
	Errors        int64     `json:"errors"`
	ModelAttempts int64     `json:"model_attempts"`
	Retries       int64     `json:"retries"`
}

// ChatState counts chat turns by outcome. All counters are atomic so one
// instance is shared by every request.
type ChatState struct {
	startedAt time.Time

	turns         atomic.Int64
	directAnswers atomic.Int64
	toolAnswers   atomic.Int64
	unknownTools  atomic.Int64
	notFound      atomic.Int64
	overloaded    atomic.Int64
	errors        atomic.Int64
	attempts      atomic.Int64
	retries       atomic.Int64
}

func NewChatState() *ChatState {
	return &ChatState{startedAt: time.Now().UTC()}
}

// Record folds one finished turn into the counters. It matches the
// chat.Service observer signature.
func (s *ChatState) Record(res chat.Result) {
	if s == nil {
		return
	}
	s.turns.Add(1)
	s.attempts.Add(int64(res.Attempts))
	if res.Attempts > 1 {
		s.retries.Add(int64(res.Attempts - 1))
	}
	switch res.Outcome {
	case chat.OutcomeDirectAnswer:
		s.directAnswers.Add(1)
	case chat.OutcomeToolAnswer:
		s.toolAnswers.Add(1)
	case chat.OutcomeUnknownTool:
		s.unknownTools.Add(1)
	case chat.OutcomeNotFound:
		s.notFound.Add(1)
	case chat.OutcomeOverloaded:
		s.overloaded.Add(1)
	default:
		s.errors.Add(1)
	}
}

func (s *ChatState) Snapshot() ChatSnapshot {
	if s == nil {
		return ChatSnapshot{}
	}
	return ChatSnapshot{
		StartedAt:     s.startedAt,
		Turns:         s.turns.Load(),
		DirectAnswers: s.directAnswers.Load(),
		ToolAnswers:   s.toolAnswers.Load(),
		UnknownTools:  s.unknownTools.Load(),
		NotFound:      s.notFound.Load(),
		Overloaded:    s.overloaded.Load(),
		Errors:        s.errors.Load(),
		ModelAttempts: s.attempts.Load(),
		Retries:       s.retries.Load(),
	}
}
