// Package mailer delivers state summaries by email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/spektr-org/profitlens/telemetry"
)

// DefaultBaseURL is the Mailgun v3 API root.
const DefaultBaseURL = "https://api.mailgun.net/v3"

// DefaultDomain is the sandbox sending domain.
const DefaultDomain = "sandbox7df9a80a5985432b8d4050cd52360101.mailgun.org"

const logoURL = "http://spotfire.tibco.com/assets/blt319e5175d30d41b2/TIBCO-Spotfire-Logo.png"

// Message is one state summary to deliver.
type Message struct {
	State     string
	Narrative string
	URL       string
}

// Subject returns the email subject line.
func (m Message) Subject() string {
	return "Spotfire Analysis for: " + m.State
}

// Text returns the plain-text body.
func (m Message) Text() string {
	return m.Narrative + "\nView your Spotfire dashboard here: " + m.URL
}

// BuildHTML renders the HTML body. Every interpolated value is escaped.
func BuildHTML(m Message) string {
	state := html.EscapeString(m.State)

	var b strings.Builder
	b.WriteString("Hello,<br><p>Below is the report you requested from Alexa.</p>")
	b.WriteString("<p>Have a great day!<br>Your Friends at TIBCO Spotfire</p><br>")
	fmt.Fprintf(&b, "<h2>Summary for %s</h2>", state)
	fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(m.Narrative))
	fmt.Fprintf(&b, `<p><a href="%s">Click here to view an in-depth summary report for %s.</a></p><br>`, html.EscapeString(m.URL), state)
	fmt.Fprintf(&b, `<p><img src="%s"></p>`, logoURL)
	return b.String()
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds Mailgun settings. APIKey, To and From usually come from the environment.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Domain  string        `yaml:"domain"`
	APIKey  string        `yaml:"-"`
	To      string        `yaml:"to"`
	From    string        `yaml:"from"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate reports every missing setting.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("mailgun api key is required"))
	}
	if c.To == "" {
		errs = append(errs, errors.New("recipient address is required"))
	}
	if c.From == "" {
		errs = append(errs, errors.New("sender address is required"))
	}
	return errors.Join(errs...)
}

// Mailgun implements Sender over the Mailgun messages API.
type Mailgun struct {
	config Config
	client *http.Client
	log    *slog.Logger
}

// NewMailgun creates a client. Empty BaseURL, Domain and Timeout take defaults.
func NewMailgun(cfg Config) *Mailgun {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Domain == "" {
		cfg.Domain = DefaultDomain
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Mailgun{
		config: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: telemetry.Logger("profitlens/mailer"),
	}
}

// Send posts msg to the messages endpoint.
func (m *Mailgun) Send(ctx context.Context, msg Message) error {
	requestID := uuid.New().String()

	form := url.Values{}
	form.Set("to", m.config.To)
	form.Set("from", m.config.From)
	form.Set("subject", msg.Subject())
	form.Set("text", msg.Text())
	form.Set("html", BuildHTML(msg))
	form.Set("v:request_id", requestID)

	endpoint := strings.TrimRight(m.config.BaseURL, "/") + "/" + m.config.Domain + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth("api", m.config.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mailgun returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	m.log.InfoContext(ctx, "sent summary email",
		slog.String("state", msg.State),
		slog.String("request_id", requestID),
	)
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
