package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the Mistral chat completions endpoint.
const DefaultEndpoint = "https://api.mistral.ai/v1/chat/completions"

// ErrMissingAPIKey is returned before any request is made when no key is configured.
var ErrMissingAPIKey = errors.New("llm: api key missing")

// Request is a single-prompt generation request.
type Request struct {
	Prompt      string
	Temperature float64
}

// Response is the model's reply.
type Response struct {
	Text string
}

// StatusError reports a non-2xx response from the completion endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm error: status=%d body=%s", e.StatusCode, e.Body)
}

// MistralClient talks to an OpenAI-compatible chat completions endpoint.
type MistralClient struct {
	HTTPClient *http.Client
	Endpoint   string
	APIKey     string
	Model      string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// NewMistralClient builds a client. A zero timeout keeps the transport default.
func NewMistralClient(endpoint, apiKey, model string, timeout time.Duration) *MistralClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &MistralClient{
		HTTPClient: &http.Client{Timeout: timeout},
		Endpoint:   endpoint,
		APIKey:     apiKey,
		Model:      model,
	}
}

// Generate posts the prompt as a single user message and returns the first choice.
func (c *MistralClient) Generate(ctx context.Context, r Request) (Response, error) {
	if c.APIKey == "" {
		return Response{}, ErrMissingAPIKey
	}

	reqBody, err := json.Marshal(chatCompletionsRequest{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "user", Content: r.Prompt}},
		Temperature: r.Temperature,
	})
	if err != nil {
		return Response{}, fmt.Errorf("llm: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Response{}, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Response{}, fmt.Errorf("llm: decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return Response{}, errors.New("llm: empty choices")
	}
	return Response{Text: strings.TrimSpace(cr.Choices[0].Message.Content)}, nil
}
