package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Adedotun019/EventSense-AI/internal/config"
)

// Classifier labels a piece of text with a single emotion. Implementations
// are advisory: callers keep their existing label on any failure.
type Classifier interface {
	Enabled() bool
	Classify(ctx context.Context, text string) (string, error)
}

// prediction is one candidate label from the inference endpoint.
type prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// HuggingFace calls a hosted text-emotion model. Constructed without a token
// it is disabled, which is a valid state rather than an error.
type HuggingFace struct {
	token      string
	apiURL     string
	httpClient *http.Client
}

type Option func(*HuggingFace)

func WithHTTPClient(hc *http.Client) Option {
	return func(h *HuggingFace) { h.httpClient = hc }
}

func NewHuggingFace(cfg config.ClassifierConfig, opts ...Option) *HuggingFace {
	h := &HuggingFace{
		token:  cfg.APIToken,
		apiURL: cfg.APIURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HuggingFace) Enabled() bool {
	return h.token != ""
}

// Classify returns the highest-scoring emotion label for text, lowercased.
// An empty label with nil error means the model produced no prediction.
func (h *HuggingFace) Classify(ctx context.Context, text string) (string, error) {
	if !h.Enabled() {
		return "", nil
	}

	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return "", fmt.Errorf("encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read classify response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("classify failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	// The inference endpoint wraps predictions in an outer array.
	var batches [][]prediction
	if err := json.Unmarshal(raw, &batches); err != nil {
		return "", fmt.Errorf("decode classify response: %w", err)
	}
	if len(batches) == 0 || len(batches[0]) == 0 {
		return "", nil
	}

	top := batches[0][0]
	for _, p := range batches[0][1:] {
		if p.Score > top.Score {
			top = p
		}
	}
	return strings.ToLower(top.Label), nil
}
