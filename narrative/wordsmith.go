package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/spektr-org/profitlens/report"
	"github.com/spektr-org/profitlens/telemetry"
)

// ============================================================================
// WORDSMITH — Remote narrative template service
// ============================================================================

// DefaultWordsmithEndpoint is the output URL of the geography narrative template.
const DefaultWordsmithEndpoint = "https://api.automatedinsights.com/v1/projects/spotfire/templates/finance-geography-alexa/outputs"

// ErrUnauthorized is returned when the service rejects the API token.
var ErrUnauthorized = errors.New("invalid API key")

// APIError is a service-reported failure or an unreadable response.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("wordsmith returned %d", e.StatusCode)
	}
	return fmt.Sprintf("wordsmith returned %d: %s", e.StatusCode, e.Detail)
}

// WordsmithConfig holds client configuration.
type WordsmithConfig struct {
	Token     string        `yaml:"-"` // bearer token, from AI_API
	Endpoint  string        `yaml:"endpoint"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Wordsmith implements Generator against the template output API.
type Wordsmith struct {
	config WordsmithConfig
	client *http.Client
	log    *slog.Logger
}

// NewWordsmith creates a client. Empty fields take defaults.
func NewWordsmith(cfg WordsmithConfig) *Wordsmith {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultWordsmithEndpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Hackathon"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Wordsmith{
		config: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: telemetry.Logger("profitlens/narrative"),
	}
}

type wordsmithRequest struct {
	Data *report.Calcs `json:"data"`
}

type wordsmithResponse struct {
	Data *struct {
		Content string `json:"content"`
	} `json:"data"`
	Errors []struct {
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Generate posts calcs to the template and returns the rendered content.
func (w *Wordsmith) Generate(ctx context.Context, calcs *report.Calcs) (string, error) {
	jsonBody, err := json.Marshal(wordsmithRequest{Data: calcs})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.Endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.config.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", w.config.UserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var wsResp wordsmithResponse
	if err := json.Unmarshal(body, &wsResp); err != nil {
		w.log.WarnContext(ctx, "unreadable wordsmith response",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(string(body), 200)),
		)
		if resp.StatusCode == http.StatusUnauthorized {
			return "", ErrUnauthorized
		}
		return "", &APIError{StatusCode: resp.StatusCode}
	}

	if len(wsResp.Errors) > 0 {
		return "", &APIError{StatusCode: resp.StatusCode, Detail: wsResp.Errors[0].Detail}
	}
	if wsResp.Data == nil {
		if resp.StatusCode == http.StatusUnauthorized {
			return "", ErrUnauthorized
		}
		return "", &APIError{StatusCode: resp.StatusCode, Detail: "response has no content"}
	}

	w.log.DebugContext(ctx, "generated narrative", slog.Int("length", len(wsResp.Data.Content)))
	return wsResp.Data.Content, nil
}
