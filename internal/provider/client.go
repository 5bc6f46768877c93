package provider

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
	"github.com/Adedotun019/EventSense-AI/internal/domain"
	"github.com/Adedotun019/EventSense-AI/pkg/log"
)

// SleepFunc suspends the polling loop for one interval. Injectable so tests
// can run the loop deterministically.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Client submits media to the remote speech-analysis provider and polls the
// resulting job until it reaches a terminal state. It performs no retries on
// upload failures; retry policy belongs to the caller.
type Client struct {
	apiKey         string
	baseURL        string
	pollInterval   time.Duration
	maxAttempts    int
	maxUploadBytes int64

	httpClient *http.Client
	sleep      SleepFunc
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithSleep(sleep SleepFunc) Option {
	return func(c *Client) { c.sleep = sleep }
}

func NewClient(cfg config.ProviderConfig, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewError(domain.KindConfig, "provider API key is required")
	}

	c := &Client{
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(cfg.APIURL, "/"),
		pollInterval:   cfg.PollInterval,
		maxAttempts:    cfg.MaxAttempts,
		maxUploadBytes: cfg.MaxUploadBytes,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		sleep: defaultSleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit uploads the asset and requests chapterization plus sentiment
// analysis. The size ceiling is enforced before any network call.
func (c *Client) Submit(ctx context.Context, asset domain.MediaAsset) (string, error) {
	if asset.Size() == 0 {
		return "", domain.NewError(domain.KindUpload, "the uploaded file is empty")
	}
	if asset.Size() > c.maxUploadBytes {
		return "", domain.NewError(domain.KindUpload, "uploaded file exceeds the size ceiling").
			WithContext("size", asset.Size()).
			WithContext("limit", c.maxUploadBytes)
	}

	uploadURL, err := c.upload(ctx, asset.Payload)
	if err != nil {
		return "", err
	}

	jobID, err := c.createJob(ctx, uploadURL)
	if err != nil {
		return "", err
	}

	log.Info("submitted analysis job %s for asset %s (%d bytes)", jobID, asset.Name, asset.Size())
	return jobID, nil
}

// AwaitCompletion polls the job at the configured interval until it completes,
// the provider reports a failure, or the attempt budget is exhausted.
func (c *Client) AwaitCompletion(ctx context.Context, jobID string) (*domain.AnalysisJob, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.getJob(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch resp.Status {
		case "completed":
			log.Info("analysis job %s completed after %d poll(s)", jobID, attempt)
			return buildJob(resp), nil
		case "error":
			msg := resp.Error
			if msg == "" {
				msg = "provider reported an unspecified failure"
			}
			return nil, domain.NewError(domain.KindProvider, msg).WithContext("job_id", jobID)
		}

		if attempt < c.maxAttempts {
			if err := c.sleep(ctx, c.pollInterval); err != nil {
				return nil, domain.WrapError(err, domain.KindTimeout, "polling interrupted").
					WithContext("job_id", jobID)
			}
		}
	}

	return nil, domain.NewError(domain.KindTimeout, "transcription timed out").
		WithContext("job_id", jobID).
		WithContext("attempts", c.maxAttempts)
}

func (c *Client) upload(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(payload))
	if err != nil {
		return "", domain.WrapError(err, domain.KindUpload, "build upload request")
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var resp uploadResponse
	if err := c.do(req, &resp, domain.KindUpload, "upload media"); err != nil {
		return "", err
	}
	if resp.UploadURL == "" {
		return "", domain.NewError(domain.KindUpload, "provider returned no upload URL")
	}
	return resp.UploadURL, nil
}

func (c *Client) createJob(ctx context.Context, uploadURL string) (string, error) {
	body, err := json.Marshal(createJobRequest{
		AudioURL:          uploadURL,
		AutoChapters:      true,
		SentimentAnalysis: true,
	})
	if err != nil {
		return "", domain.WrapError(err, domain.KindUpload, "encode job request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", domain.WrapError(err, domain.KindUpload, "build job request")
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var resp jobResponse
	if err := c.do(req, &resp, domain.KindUpload, "create analysis job"); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", domain.NewError(domain.KindUpload, "provider returned no job id")
	}
	return resp.ID, nil
}

func (c *Client) getJob(ctx context.Context, jobID string) (*jobResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/transcript/%s", c.baseURL, jobID), nil)
	if err != nil {
		return nil, domain.WrapError(err, domain.KindProvider, "build poll request")
	}
	req.Header.Set("Authorization", c.apiKey)

	var resp jobResponse
	if err := c.do(req, &resp, domain.KindProvider, "poll analysis job"); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(req *http.Request, out any, kind domain.ErrorKind, op string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(err, kind, op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WrapError(err, kind, op)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.NewError(kind, op+" failed").
			WithContext("status", resp.StatusCode).
			WithContext("body", strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.WrapError(err, kind, op+": decode response")
	}
	return nil
}

func buildJob(resp *jobResponse) *domain.AnalysisJob {
	job := &domain.AnalysisJob{
		ID:             resp.ID,
		Status:         domain.StatusCompleted,
		TranscriptText: resp.Text,
		Chapters:       make([]domain.RawChapter, 0, len(resp.Chapters)),
		Sentiments:     make([]domain.SentimentSegment, 0, len(resp.Sentiments)),
	}
	for _, ch := range resp.Chapters {
		job.Chapters = append(job.Chapters, domain.RawChapter{
			StartMs: ch.Start,
			EndMs:   ch.End,
			Summary: ch.Summary,
		})
	}
	for _, s := range resp.Sentiments {
		job.Sentiments = append(job.Sentiments, domain.SentimentSegment{
			StartMs:    s.Start,
			EndMs:      s.End,
			Label:      strings.ToLower(s.Sentiment),
			Confidence: s.Confidence,
		})
	}
	return job
}
