package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"indexchat/internal/model"
)

var testTool = model.ToolDeclaration{
	Name:        "get_latest_index_snapshot",
	Description: "Get the latest performance snapshot for an index by ID.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index_id": map[string]any{"type": "string", "description": "The index ID."},
		},
		"required": []string{"index_id"},
	},
}

func TestGenerate_TextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "key" {
			t.Fatalf("unexpected api key header: %q", got)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		cfg, _ := req["generationConfig"].(map[string]any)
		if cfg["temperature"] != 0.1 {
			t.Fatalf("unexpected temperature: %#v", cfg["temperature"])
		}
		if _, ok := req["tools"]; ok {
			t.Fatalf("expected no tools on a tool-less request: %#v", req["tools"])
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"there"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "gemini-2.5-flash")
	resp, err := c.Generate(context.Background(), model.GenerateRequest{
		Contents:    []model.Content{model.UserText("hi")},
		Temperature: 0.1,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Text != "Hello there" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if _, ok := resp.ToolCall(); ok {
		t.Fatal("expected no tool call")
	}
}

func TestGenerate_FunctionCallCamelCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Tools) != 1 || len(req.Tools[0].FunctionDeclarations) != 1 {
			t.Fatalf("expected one declared function, got %#v", req.Tools)
		}
		decl := req.Tools[0].FunctionDeclarations[0]
		if decl.Name != "get_latest_index_snapshot" {
			t.Fatalf("unexpected declaration name: %s", decl.Name)
		}
		if decl.Parameters["type"] != "OBJECT" {
			t.Fatalf("expected normalized schema type, got %#v", decl.Parameters["type"])
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[
			{"functionCall":{"name":"get_latest_index_snapshot","args":{"index_id":"2003RealEstate"}},"thoughtSignature":"sig-1"}
		]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "gemini-2.5-flash")
	resp, err := c.Generate(context.Background(), model.GenerateRequest{
		Contents: []model.Content{model.UserText("how is 2003RealEstate doing?")},
		Tools:    []model.ToolDeclaration{testTool},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	call, ok := resp.ToolCall()
	if !ok {
		t.Fatal("expected a tool call")
	}
	if call.Name != "get_latest_index_snapshot" || call.Args["index_id"] != "2003RealEstate" {
		t.Fatalf("unexpected call: %#v", call)
	}
	if resp.Turn.Role != model.RoleModel || len(resp.Turn.Parts) != 1 {
		t.Fatalf("unexpected turn: %#v", resp.Turn)
	}
	if resp.Turn.Parts[0].ThoughtSignature != "sig-1" {
		t.Fatalf("expected thought signature to be kept for replay: %#v", resp.Turn.Parts[0])
	}
}

func TestGenerate_FunctionCallSnakeCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[
			{"text":"let me check"},
			{"function_call":{"name":"lookup","args":{"index_id":"A"}}},
			{"function_call":{"name":"second","args":{}}}
		]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "")
	resp, err := c.Generate(context.Background(), model.GenerateRequest{Contents: []model.Content{model.UserText("q")}})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	call, ok := resp.ToolCall()
	if !ok || call.Name != "lookup" {
		t.Fatalf("expected first call to win, got %#v ok=%v", call, ok)
	}
	if resp.Text != "" {
		t.Fatalf("text must not be used when a call is present: %q", resp.Text)
	}
	if resp.Turn.Role != model.RoleModel {
		t.Fatalf("expected default model role, got %q", resp.Turn.Role)
	}
}

func TestGenerate_FollowUpCarriesFunctionResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 3 {
			t.Fatalf("expected 3 contents, got %d", len(req.Contents))
		}
		if req.Contents[1].Role != "model" || req.Contents[1].Parts[0].FunctionCall == nil {
			t.Fatalf("expected replayed model turn, got %#v", req.Contents[1])
		}
		fr := req.Contents[2].Parts[0].FunctionResponse
		if fr == nil || fr.Name != "get_latest_index_snapshot" || fr.Response["ID"] != "2003RealEstate" {
			t.Fatalf("unexpected function response: %#v", fr)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"It returned 3%."}]}}]}`))
	}))
	defer srv.Close()

	call := &model.ToolCall{Name: "get_latest_index_snapshot", Args: map[string]any{"index_id": "2003RealEstate"}}
	c := NewClient(srv.URL, "key", "gemini-2.5-flash")
	resp, err := c.Generate(context.Background(), model.GenerateRequest{
		Contents: []model.Content{
			model.UserText("prompt"),
			{Role: model.RoleModel, Parts: []model.Part{{FunctionCall: call}}},
			{Role: model.RoleUser, Parts: []model.Part{{FunctionResponse: &model.FunctionResponse{
				Name:     "get_latest_index_snapshot",
				Response: map[string]any{"ID": "2003RealEstate", "Date": "2024-03-31"},
			}}}},
		},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Text != "It returned 3%." {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
}

func TestGenerate_UnavailableIsDistinguishable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "gemini-2.5-flash")
	_, err := c.Generate(context.Background(), model.GenerateRequest{Contents: []model.Content{model.UserText("q")}})
	if !errors.Is(err, model.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	var pe *model.ProviderError
	if !errors.As(err, &pe) || pe.Code != model.CodeGeminiUnavailable || pe.Message != "The model is overloaded." {
		t.Fatalf("unexpected provider error: %#v", pe)
	}
}

func TestGenerate_OtherFailuresAreNotUnavailable(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, model.CodeGeminiAuth},
		{http.StatusTooManyRequests, model.CodeGeminiRateLimit},
		{http.StatusInternalServerError, model.CodeGeminiFailed},
		{http.StatusBadRequest, model.CodeGeminiFailed},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", tc.status)
		}))

		c := NewClient(srv.URL, "key", "gemini-2.5-flash")
		_, err := c.Generate(context.Background(), model.GenerateRequest{Contents: []model.Content{model.UserText("q")}})
		srv.Close()

		if errors.Is(err, model.ErrServiceUnavailable) {
			t.Fatalf("status %d must not classify as unavailable", tc.status)
		}
		var pe *model.ProviderError
		if !errors.As(err, &pe) || pe.Code != tc.code {
			t.Fatalf("status %d: expected %s, got %v", tc.status, tc.code, err)
		}
	}
}

func TestGenerate_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", "gemini-2.5-flash")
	_, err := c.Generate(context.Background(), model.GenerateRequest{Contents: []model.Content{model.UserText("q")}})
	var pe *model.ProviderError
	if !errors.As(err, &pe) || pe.Code != model.CodeGeminiFailed {
		t.Fatalf("expected GEMINI_FAILED, got %v", err)
	}
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	c := NewClient("http://example.test", "", "gemini-2.5-flash")
	_, err := c.Generate(context.Background(), model.GenerateRequest{Contents: []model.Content{model.UserText("q")}})
	var pe *model.ProviderError
	if !errors.As(err, &pe) || pe.Code != model.CodeGeminiAuth {
		t.Fatalf("expected provider auth error, got: %v", err)
	}
}

func TestNormalizeSchemaLeavesInputUntouched(t *testing.T) {
	out := normalizeSchema(testTool.Parameters)
	if testTool.Parameters["type"] != "object" {
		t.Fatal("input schema was mutated")
	}
	props := out["properties"].(map[string]any)
	if props["index_id"].(map[string]any)["type"] != "STRING" {
		t.Fatalf("nested type not normalized: %#v", props)
	}
}
