package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"indexchat/internal/model"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	defaultTimeout = 60 * time.Second
)

// Client calls the Gemini generateContent REST endpoint. It never retries;
// callers decide what to do with a GEMINI_UNAVAILABLE error.
type Client struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey, modelName string) *Client {
	return &Client{
		APIKey:     strings.TrimSpace(apiKey),
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Model:      strings.TrimSpace(modelName),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) Generate(ctx context.Context, req model.GenerateRequest) (model.ModelResponse, error) {
	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		return model.ModelResponse{}, &model.ProviderError{
			Code:      model.CodeGeminiAuth,
			Message:   "missing Gemini API key",
			Retryable: false,
		}
	}
	if len(req.Contents) == 0 {
		return model.ModelResponse{}, &model.ProviderError{
			Code:      model.CodeGeminiFailed,
			Message:   "contents are required",
			Retryable: false,
		}
	}

	payload, err := json.Marshal(buildRequest(req))
	if err != nil {
		return model.ModelResponse{}, &model.ProviderError{Code: model.CodeGeminiFailed, Message: "failed to marshal generate request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return model.ModelResponse{}, &model.ProviderError{Code: model.CodeGeminiFailed, Message: "failed to build generate request", Cause: err}
	}
	httpReq.Header.Set("x-goog-api-key", apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return model.ModelResponse{}, &model.ProviderError{Code: model.CodeGeminiFailed, Message: "generate request failed", Retryable: true, Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ModelResponse{}, &model.ProviderError{Code: model.CodeGeminiFailed, Message: "failed to read generate response", Retryable: true, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return model.ModelResponse{}, mapProviderError(resp.StatusCode, body)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.ModelResponse{}, &model.ProviderError{Code: model.CodeGeminiFailed, Message: "failed to decode generate response", StatusCode: resp.StatusCode, Cause: err}
	}
	return interpret(parsed)
}

func (c *Client) endpoint() string {
	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	modelName := strings.TrimSpace(c.Model)
	if modelName == "" {
		modelName = DefaultModel
	}
	return strings.TrimRight(baseURL, "/") + "/v1beta/models/" + url.PathEscape(modelName) + ":generateContent"
}

// mapProviderError classifies a non-2xx response. Only 503 (or an error body
// whose status is UNAVAILABLE) maps to GEMINI_UNAVAILABLE.
func mapProviderError(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))
	apiStatus := ""
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
		apiStatus = strings.ToUpper(strings.TrimSpace(envelope.Error.Status))
	}
	if message == "" {
		message = fmt.Sprintf("gemini returned status %d", statusCode)
	}

	pe := &model.ProviderError{
		Code:       model.CodeGeminiFailed,
		Message:    message,
		Retryable:  false,
		StatusCode: statusCode,
	}

	switch {
	case statusCode == http.StatusServiceUnavailable || apiStatus == "UNAVAILABLE":
		pe.Code = model.CodeGeminiUnavailable
		pe.Retryable = true
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		pe.Code = model.CodeGeminiAuth
	case statusCode == http.StatusTooManyRequests:
		pe.Code = model.CodeGeminiRateLimit
		pe.Retryable = true
	case statusCode >= http.StatusInternalServerError:
		pe.Retryable = true
	}

	return pe
}
