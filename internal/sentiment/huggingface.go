package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HuggingFaceClient calls a hosted text-classification model.
type HuggingFaceClient struct {
	HTTPClient *http.Client
	URL        string
	Token      string
}

type hfRequest struct {
	Inputs string `json:"inputs"`
}

type hfScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func NewHuggingFaceClient(url, token string) *HuggingFaceClient {
	return &HuggingFaceClient{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		URL:        url,
		Token:      token,
	}
}

// Analyze returns the highest scoring label for text.
func (h *HuggingFaceClient) Analyze(ctx context.Context, text string) (Result, error) {
	b, err := json.Marshal(hfRequest{Inputs: text})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("sentiment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("sentiment %s: %s", resp.Status, string(body))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("sentiment read: %w", err)
	}
	scores, err := decodeScores(raw)
	if err != nil {
		return Result{}, fmt.Errorf("sentiment decode: %w", err)
	}
	return best(scores)
}

// decodeScores accepts both [[{label,score}]] (pipeline output per input)
// and the flat [{label,score}] form.
func decodeScores(raw []byte) ([]hfScore, error) {
	var nested [][]hfScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}
	var flat []hfScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func best(scores []hfScore) (Result, error) {
	if len(scores) == 0 {
		return Result{}, errors.New("sentiment: empty result")
	}
	top := scores[0]
	for _, s := range scores[1:] {
		if s.Score > top.Score {
			top = s
		}
	}
	return Result{Label: normalizeLabel(top.Label), Score: clamp01(top.Score)}, nil
}
