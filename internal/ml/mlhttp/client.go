// Package mlhttp implements the ml.Client gateway over the ML service's HTTP API.
package mlhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/opencodeiiita/careercraft-backend/internal/extract"
	"github.com/opencodeiiita/careercraft-backend/internal/ml"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/telemetry"
)

// Options configures the HTTP gateway client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// LocalExtract runs text extraction in-process instead of calling the
	// remote extract endpoint.
	LocalExtract bool
}

// Client calls the ML service over HTTP with a circuit breaker in front.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker[[]byte]
	localExtract bool
}

// NewClient constructs a gateway client for the ML service at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("ML_SERVICE_URL is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "ml-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.Warn("ml.breaker.state", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// 4xx means the service answered; only transport and 5xx
			// failures count against the breaker.
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode < 500 {
				return true
			}
			return false
		},
	}

	return &Client{
		baseURL:      base,
		httpClient:   &http.Client{Timeout: timeout},
		breaker:      gobreaker.NewCircuitBreaker[[]byte](settings),
		localExtract: opts.LocalExtract,
	}, nil
}

// StatusError reports a non-2xx response from the ML service.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ml %s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("ml %s: status %d: %s", e.Operation, e.StatusCode, strings.TrimSpace(e.Body))
}

// ExtractText converts raw resume bytes into plain text.
func (c *Client) ExtractText(ctx context.Context, file []byte, fileName, mimeType string) (string, error) {
	if c.localExtract {
		return extract.FromBytes(ctx, file, mimeType, fileName)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, strings.ReplaceAll(fileName, `"`, "")))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build extract request: %w", err)
	}
	if _, err := part.Write(file); err != nil {
		return "", fmt.Errorf("build extract request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build extract request: %w", err)
	}

	raw, err := c.post(ctx, "extract-text", "/resume/extract-text", writer.FormDataContentType(), body)
	if err != nil {
		return "", err
	}

	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("ml extract-text: decode response: %w", err)
	}
	return resp.Text, nil
}

// Analyze converts extracted resume text into a structured analysis.
func (c *Client) Analyze(ctx context.Context, resumeText string) (ml.AnalysisPayload, error) {
	raw, err := c.postJSON(ctx, "analyze", "/resume/analyze", map[string]string{"content": resumeText})
	if err != nil {
		return ml.AnalysisPayload{}, err
	}

	var payload ml.AnalysisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ml.AnalysisPayload{}, fmt.Errorf("ml analyze: decode response: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return ml.AnalysisPayload{}, fmt.Errorf("ml analyze: %w", err)
	}
	return payload, nil
}

// Match scores resume text against a job description.
func (c *Client) Match(ctx context.Context, resumeText, jobDescription string) (ml.JobMatchPayload, error) {
	raw, err := c.postJSON(ctx, "match", "/job/match", map[string]string{
		"resume": resumeText,
		"job":    jobDescription,
	})
	if err != nil {
		return ml.JobMatchPayload{}, err
	}

	var payload ml.JobMatchPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ml.JobMatchPayload{}, fmt.Errorf("ml match: decode response: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return ml.JobMatchPayload{}, fmt.Errorf("ml match: %w", err)
	}
	return payload, nil
}

// GenerateCoverLetter drafts a cover letter for a job application.
func (c *Client) GenerateCoverLetter(ctx context.Context, req ml.CoverLetterRequest) (ml.CoverLetterPayload, error) {
	raw, err := c.postJSON(ctx, "cover-letter", "/cover-letter/generate", req)
	if err != nil {
		return ml.CoverLetterPayload{}, err
	}

	var payload ml.CoverLetterPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ml.CoverLetterPayload{}, fmt.Errorf("ml cover-letter: decode response: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return ml.CoverLetterPayload{}, fmt.Errorf("ml cover-letter: %w", err)
	}
	return payload, nil
}

func (c *Client) postJSON(ctx context.Context, operation, path string, body any) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ml %s: encode request: %w", operation, err)
	}
	return c.post(ctx, operation, path, "application/json", bytes.NewReader(encoded))
}

func (c *Client) post(ctx context.Context, operation, path, contentType string, body io.Reader) ([]byte, error) {
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: string(data)}
		}
		return data, nil
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return nil, fmt.Errorf("ml %s: %w", operation, err)
		}
		return nil, fmt.Errorf("ml %s: %w: %w", operation, ml.ErrUnavailable, err)
	}
	return raw, nil
}

var _ ml.Client = (*Client)(nil)
