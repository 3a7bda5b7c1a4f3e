package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mitchellh/mapstructure"

	"indexchat/internal/model"
)

const (
	DefaultTemperature = 0.1
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// Service runs one chat turn: first model call, at most one whitelisted tool
// call against the snapshot store, and a follow-up model call carrying the
// tool result. It holds no per-request state and is safe for concurrent use.
type Service struct {
	gen         model.Generator
	store       model.SnapshotStore
	logger      *slog.Logger
	temperature float32
	maxAttempts int
	baseDelay   time.Duration
	newTimer    func() backoff.Timer
	observe     func(Result)
}

func NewService(gen model.Generator, store model.SnapshotStore) *Service {
	return &Service{
		gen:         gen,
		store:       store,
		logger:      discardLogger,
		temperature: DefaultTemperature,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		newTimer:    func() backoff.Timer { return nil },
	}
}

func (s *Service) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.logger = logger
}

func (s *Service) SetTemperature(t float32) {
	s.temperature = t
}

// SetRetryPolicy configures the first-call retry: maxAttempts total calls
// with delays baseDelay, 2*baseDelay, 4*baseDelay... between them.
func (s *Service) SetRetryPolicy(maxAttempts int, baseDelay time.Duration) {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if baseDelay > 0 {
		s.baseDelay = baseDelay
	}
}

// SetTimerFactory replaces the timer used to wait between retries. A nil
// timer from the factory means a real one.
func (s *Service) SetTimerFactory(f func() backoff.Timer) {
	if f == nil {
		return
	}
	s.newTimer = f
}

// SetObserver registers a callback that sees every finished turn.
func (s *Service) SetObserver(f func(Result)) {
	s.observe = f
}

// Reply is Handle without the bookkeeping.
func (s *Service) Reply(ctx context.Context, message string) string {
	return s.Handle(ctx, message).Reply
}

// Handle never returns an error or panics: every failure is folded into a
// Result with a user-facing reply.
func (s *Service) Handle(ctx context.Context, message string) (res Result) {
	logger := loggerFrom(ctx, s.logger)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			logger.Error("chat turn panicked", "error", err)
			res = Result{Outcome: OutcomeInternalError, Reply: internalErrorReply(err), Attempts: res.Attempts, Call: res.Call, Err: err}
		}
		if s.observe != nil {
			s.observe(res)
		}
	}()

	res = s.run(ctx, logger, message)
	if res.Outcome == OutcomeInternalError {
		logger.Error("chat turn failed", "error", res.Err, "attempts", res.Attempts)
	} else {
		logger.Info("chat turn finished", "outcome", res.Outcome.String(), "attempts", res.Attempts)
	}
	return res
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, message string) Result {
	prompt := model.UserText(buildPrompt(message))

	logger.Debug("first model call", "message", message)
	first, attempts, err := s.firstCall(ctx, logger, model.GenerateRequest{
		Contents:    []model.Content{prompt},
		Tools:       []model.ToolDeclaration{SnapshotTool},
		Temperature: s.temperature,
	})
	res := Result{Attempts: attempts}
	if err != nil {
		if errors.Is(err, model.ErrServiceUnavailable) {
			res.Outcome = OutcomeOverloaded
			res.Reply = overloadedReply
			res.Err = err
			return res
		}
		return internalError(res, fmt.Errorf("first model call: %w", err))
	}

	call, ok := first.ToolCall()
	if !ok {
		res.Outcome = OutcomeDirectAnswer
		res.Reply = first.Text
		return res
	}
	res.Call = &call
	logger.Info("model requested tool", "tool", call.Name, "args", call.Args)

	if call.Name != SnapshotTool.Name {
		res.Outcome = OutcomeUnknownTool
		res.Reply = unknownToolReply(call.Name)
		return res
	}

	var args snapshotArgs
	if err := mapstructure.Decode(call.Args, &args); err != nil {
		return internalError(res, fmt.Errorf("decode %s arguments: %w", call.Name, err))
	}

	snapshot, err := s.store.LatestSnapshot(ctx, args.IndexID)
	if errors.Is(err, model.ErrNotFound) {
		res.Outcome = OutcomeNotFound
		res.Reply = notFoundReply(args.IndexID)
		return res
	}
	if err != nil {
		return internalError(res, fmt.Errorf("%s(%q): %w", call.Name, args.IndexID, err))
	}
	logger.Debug("tool result", "tool", call.Name, "index_id", args.IndexID, "snapshot", map[string]any(snapshot))

	logger.Debug("second model call", "tool", call.Name)
	final, err := s.gen.Generate(ctx, model.GenerateRequest{
		Contents: []model.Content{
			prompt,
			first.Turn,
			{
				Role: model.RoleUser,
				Parts: []model.Part{{FunctionResponse: &model.FunctionResponse{
					Name:     call.Name,
					Response: snapshot,
				}}},
			},
		},
		Temperature: s.temperature,
	})
	if err != nil {
		return internalError(res, fmt.Errorf("second model call: %w", err))
	}

	res.Outcome = OutcomeToolAnswer
	res.Reply = final.Text
	return res
}

// firstCall retries only ErrServiceUnavailable; every other error stops the
// loop on the spot. It returns the number of calls made.
func (s *Service) firstCall(ctx context.Context, logger *slog.Logger, req model.GenerateRequest) (model.ModelResponse, int, error) {
	var (
		resp     model.ModelResponse
		attempts int
		lastErr  error
	)
	op := func() error {
		attempts++
		r, err := s.gen.Generate(ctx, req)
		if err == nil {
			resp = r
			return nil
		}
		lastErr = err
		if errors.Is(err, model.ErrServiceUnavailable) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, delay time.Duration) {
		logger.Warn("model unavailable, retrying", "attempt", attempts, "max_attempts", s.maxAttempts, "delay", delay, "error", err)
	}

	err := backoff.RetryNotifyWithTimer(op, s.retryPolicy(ctx), notify, s.newTimer())
	if err != nil && errors.Is(lastErr, model.ErrServiceUnavailable) && ctx.Err() != nil {
		// Cancelled mid-backoff: report the upstream condition, not the cancel.
		err = lastErr
	}
	return resp, attempts, err
}

func (s *Service) retryPolicy(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.baseDelay
	eb.RandomizationFactor = 0
	eb.Multiplier = 2
	eb.MaxInterval = s.baseDelay << uint(s.maxAttempts)
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.maxAttempts-1)), ctx)
}

func internalError(res Result, err error) Result {
	res.Outcome = OutcomeInternalError
	res.Reply = internalErrorReply(err)
	res.Err = err
	return res
}
