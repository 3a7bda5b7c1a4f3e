package model

import "errors"

var (
	// ErrNotFound is returned by snapshot stores when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrServiceUnavailable marks upstream capacity failures. Only this class
	// is retried by the chat orchestrator.
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)

// Provider error codes emitted by the model gateway.
const (
	CodeGeminiAuth        = "GEMINI_AUTH"
	CodeGeminiRateLimit   = "GEMINI_RATE_LIMIT"
	CodeGeminiUnavailable = "GEMINI_UNAVAILABLE"
	CodeGeminiFailed      = "GEMINI_FAILED"
)

type ProviderError struct {
	Code       string
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports unavailable provider errors as ErrServiceUnavailable so callers
// can classify with errors.Is without knowing the provider's codes.
func (e *ProviderError) Is(target error) bool {
	if e == nil {
		return false
	}
	return target == ErrServiceUnavailable && e.Code == CodeGeminiUnavailable
}
