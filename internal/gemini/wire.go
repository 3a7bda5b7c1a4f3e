package gemini

import (
	"strings"

	"indexchat/internal/model"
)

type generateRequest struct {
	Contents         []wireContent     `json:"contents"`
	Tools            []wireTool        `json:"tools,omitempty"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature *float32 `json:"temperature,omitempty"`
}

type wireTool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wirePart struct {
	Text             string                `json:"text,omitempty"`
	FunctionCall     *wireFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *wireFunctionResponse `json:"functionResponse,omitempty"`
	ThoughtSignature string                `json:"thoughtSignature,omitempty"`
}

type wireFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type wireFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type generateResponse struct {
	Candidates []struct {
		Content      responseContent `json:"content"`
		FinishReason string          `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type responseContent struct {
	Role  string         `json:"role"`
	Parts []responsePart `json:"parts"`
}

// responsePart accepts both the camelCase and snake_case spellings of a
// function call; which one arrives depends on the API surface in front of
// the model.
type responsePart struct {
	Text              string            `json:"text"`
	Thought           bool              `json:"thought"`
	FunctionCall      *wireFunctionCall `json:"functionCall"`
	FunctionCallSnake *wireFunctionCall `json:"function_call"`
	ThoughtSignature  string            `json:"thoughtSignature"`
}

func (p responsePart) call() *wireFunctionCall {
	if p.FunctionCall != nil {
		return p.FunctionCall
	}
	return p.FunctionCallSnake
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func buildRequest(req model.GenerateRequest) generateRequest {
	out := generateRequest{
		Contents: make([]wireContent, 0, len(req.Contents)),
	}
	for _, content := range req.Contents {
		out.Contents = append(out.Contents, toWireContent(content))
	}
	if len(req.Tools) > 0 {
		decls := make([]functionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			decls = append(decls, functionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  normalizeSchema(tool.Parameters),
			})
		}
		out.Tools = []wireTool{{FunctionDeclarations: decls}}
	}
	temperature := req.Temperature
	out.GenerationConfig = &generationConfig{Temperature: &temperature}
	return out
}

func toWireContent(content model.Content) wireContent {
	wc := wireContent{Role: content.Role, Parts: make([]wirePart, 0, len(content.Parts))}
	for _, part := range content.Parts {
		wp := wirePart{Text: part.Text, ThoughtSignature: part.ThoughtSignature}
		if part.FunctionCall != nil {
			wp.FunctionCall = &wireFunctionCall{Name: part.FunctionCall.Name, Args: part.FunctionCall.Args}
		}
		if part.FunctionResponse != nil {
			wp.FunctionResponse = &wireFunctionResponse{Name: part.FunctionResponse.Name, Response: part.FunctionResponse.Response}
		}
		wc.Parts = append(wc.Parts, wp)
	}
	return wc
}

// interpret normalizes the first candidate into a ModelResponse. The first
// function-call part found wins; text is only assembled when there is none.
func interpret(resp generateResponse) (model.ModelResponse, error) {
	if len(resp.Candidates) == 0 {
		msg := "response had no candidates"
		if reason := strings.TrimSpace(resp.PromptFeedback.BlockReason); reason != "" {
			msg += " (blocked: " + reason + ")"
		}
		return model.ModelResponse{}, &model.ProviderError{Code: model.CodeGeminiFailed, Message: msg}
	}

	candidate := resp.Candidates[0].Content
	role := candidate.Role
	if role == "" {
		role = model.RoleModel
	}
	turn := model.Content{Role: role, Parts: make([]model.Part, 0, len(candidate.Parts))}

	var call *model.ToolCall
	var text strings.Builder
	for _, part := range candidate.Parts {
		mp := model.Part{Text: part.Text, ThoughtSignature: part.ThoughtSignature}
		if fc := part.call(); fc != nil {
			tc := model.ToolCall{Name: fc.Name, Args: fc.Args}
			if tc.Args == nil {
				tc.Args = map[string]any{}
			}
			mp.FunctionCall = &tc
			if call == nil {
				call = &tc
			}
		} else if !part.Thought {
			text.WriteString(part.Text)
		}
		turn.Parts = append(turn.Parts, mp)
	}

	out := model.ModelResponse{Turn: turn, Call: call}
	if call == nil {
		out.Text = text.String()
	}
	return out, nil
}

// normalizeSchema upper-cases JSON-schema "type" values into the OpenAPI
// enum spelling the REST API expects. The input is not modified.
func normalizeSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		switch {
		case k == "type":
			if s, ok := v.(string); ok {
				out[k] = strings.ToUpper(s)
				continue
			}
			out[k] = v
		case k == "properties":
			props, ok := v.(map[string]any)
			if !ok {
				out[k] = v
				continue
			}
			normalized := make(map[string]any, len(props))
			for name, prop := range props {
				if sub, ok := prop.(map[string]any); ok {
					normalized[name] = normalizeSchema(sub)
				} else {
					normalized[name] = prop
				}
			}
			out[k] = normalized
		case k == "items":
			if sub, ok := v.(map[string]any); ok {
				out[k] = normalizeSchema(sub)
				continue
			}
			out[k] = v
		default:
			out[k] = v
		}
	}
	return out
}
