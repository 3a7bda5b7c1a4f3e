package model

import (
	"fmt"
	"time"
)

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// Snapshot is a point-in-time document for one index. Besides ID and Date it
// carries whatever metric fields the source data had.
type Snapshot map[string]any

// Snapshot field names shared by every store backend.
const (
	FieldID         = "ID"
	FieldDate       = "Date"
	FieldInternalID = "_id"
)

// ID returns the index identifier, or "" when absent.
func (s Snapshot) ID() string {
	v, ok := s[FieldID]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// DateKey returns a string that orders snapshots of one index by Date.
// ISO-8601 strings sort lexically as-is, extended-JSON {"$date": ...}
// wrappers are unwrapped, and numbers are zero-padded.
func (s Snapshot) DateKey() string {
	return dateKey(s[FieldDate])
}

func dateKey(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return d
	case time.Time:
		return d.UTC().Format(time.RFC3339Nano)
	case float64:
		return fmt.Sprintf("%020.0f", d)
	case int64:
		return fmt.Sprintf("%020d", d)
	case int:
		return fmt.Sprintf("%020d", d)
	case map[string]any:
		if inner, ok := d["$date"]; ok {
			return dateKey(inner)
		}
	}
	return fmt.Sprint(v)
}

// Clean returns a copy without the storage-internal identifier.
func (s Snapshot) Clean() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		if k == FieldInternalID {
			continue
		}
		out[k] = v
	}
	return out
}

// ToolDeclaration describes a function the model may ask the caller to run.
// Parameters is a JSON-schema object.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a function-call request extracted from a model response.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Conversation roles understood by the model gateway.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Content is one conversation turn.
type Content struct {
	Role  string
	Parts []Part
}

// Part holds exactly one of Text, FunctionCall or FunctionResponse.
// ThoughtSignature is opaque provider state that must be echoed back
// unchanged when the part is replayed.
type Part struct {
	Text             string
	FunctionCall     *ToolCall
	FunctionResponse *FunctionResponse
	ThoughtSignature string
}

type FunctionResponse struct {
	Name     string
	Response map[string]any
}

// UserText builds a single-part user turn.
func UserText(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{{Text: text}}}
}

type GenerateRequest struct {
	Contents    []Content
	Tools       []ToolDeclaration
	Temperature float32
}

// ModelResponse is either final text or a tool-call request. Call is nil when
// the model answered directly. Turn is the model's raw turn, replayed on the
// follow-up request after a tool call.
type ModelResponse struct {
	Text string
	Call *ToolCall
	Turn Content
}

// ToolCall reports the requested call, if any.
func (r ModelResponse) ToolCall() (ToolCall, bool) {
	if r.Call == nil {
		return ToolCall{}, false
	}
	return *r.Call, true
}
