package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
)

// Verdict is the evaluator's answer for one submission.
type Verdict struct {
	Status   string `json:"status"` // "approved" or "needs_revision"
	Feedback string `json:"feedback"`
}

// Evaluator reviews a photo submission. Implementations are opaque, possibly
// slow, and possibly failing; a failure never becomes a verdict.
type Evaluator interface {
	Evaluate(ctx context.Context, submissionID int64, criteria string) (Verdict, error)
}

// Client calls an external evaluation service over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Evaluate posts the submission for review, retrying transient failures with
// exponential backoff. Exhausted retries surface as Unavailable so the caller
// leaves the submission untouched for a later retry or escalation.
func (c *Client) Evaluate(ctx context.Context, submissionID int64, criteria string) (Verdict, error) {
	payload, err := json.Marshal(map[string]any{
		"submission_id": submissionID,
		"criteria":      criteria,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("marshal request: %w", err)
	}

	var verdict Verdict
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/evaluate", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Warn("evaluator request failed", "submission_id", submissionID, "error", err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			c.logger.Warn("evaluator returned server error", "submission_id", submissionID, "status", resp.StatusCode)
			return retry.RetryableError(fmt.Errorf("evaluator status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("evaluator status %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(&verdict)
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: evaluator: %v", domain.ErrUnavailable, err)
	}

	if verdict.Status != "approved" && verdict.Status != "needs_revision" {
		return Verdict{}, fmt.Errorf("%w: evaluator verdict %q", domain.ErrUnavailable, verdict.Status)
	}
	return verdict, nil
}
