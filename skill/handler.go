package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spektr-org/profitlens/engine"
	"github.com/spektr-org/profitlens/mailer"
	"github.com/spektr-org/profitlens/narrative"
	"github.com/spektr-org/profitlens/report"
	"github.com/spektr-org/profitlens/telemetry"
)

// ============================================================================
// HANDLER — Routes voice intents to report, narrative and mailer
// ============================================================================
// Every route takes the incoming Session and answers with the next one.
// Collaborator failures are spoken as an apology; Dispatch only errors on
// envelopes it cannot route.
// ============================================================================

// ErrUnsupportedRequest is returned for an envelope without a known request type.
var ErrUnsupportedRequest = errors.New("unsupported request type")

// Handler answers skill envelopes.
type Handler struct {
	datasets  *report.Datasets
	builder   *report.Builder
	narrator  narrative.Generator
	sender    mailer.Sender
	prompts   Prompts
	periods   engine.PeriodPair
	dashboard string
	log       *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithPrompts replaces the default prompt texts.
func WithPrompts(p Prompts) Option {
	return func(h *Handler) {
		h.prompts = p
	}
}

// WithPeriods sets the compared periods. Default 2008 → 2009.
func WithPeriods(p engine.PeriodPair) Option {
	return func(h *Handler) {
		h.periods = p
	}
}

// WithDashboardBase sets the dashboard URL deep links start from.
func WithDashboardBase(base string) Option {
	return func(h *Handler) {
		h.dashboard = base
	}
}

// NewHandler creates a Handler over loaded datasets.
func NewHandler(ds *report.Datasets, builder *report.Builder, narrator narrative.Generator, sender mailer.Sender, opts ...Option) *Handler {
	h := &Handler{
		datasets:  ds,
		builder:   builder,
		narrator:  narrator,
		sender:    sender,
		prompts:   DefaultPrompts(),
		periods:   engine.PeriodPair{Prior: "2008", Current: "2009"},
		dashboard: report.DefaultDashboardBase,
		log:       telemetry.Logger("profitlens/skill"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dispatch routes env and returns the response to speak.
func (h *Handler) Dispatch(ctx context.Context, env Envelope) (ResponseEnvelope, error) {
	sess := SessionFromAttributes(env.Session.Attributes)

	switch env.Request.Type {
	case LaunchRequest:
		return ask(Session{}, h.prompts.Welcome, h.prompts.Reprompt), nil
	case SessionEndedRequest:
		return tell(h.prompts.Goodbye), nil
	case IntentRequest:
	default:
		return ResponseEnvelope{}, fmt.Errorf("%w: %q", ErrUnsupportedRequest, env.Request.Type)
	}

	intent := env.Request.Intent
	h.log.InfoContext(ctx, "dispatching intent",
		slog.String("intent", intent.Name),
		slog.String("session_state", sess.State),
	)

	switch intent.Name {
	case IntentGetState:
		return h.getState(ctx, sess, intent.SlotValue("state")), nil
	case IntentYesWithState:
		return h.yesWithState(ctx, sess, intent.SlotValue("state")), nil
	case IntentYes:
		return h.yes(ctx, sess), nil
	case IntentNo:
		return h.no(sess), nil
	case IntentStop, IntentCancel:
		return tell(h.prompts.Goodbye), nil
	default:
		return ask(sess, h.prompts.Reprompt, ""), nil
	}
}

func (h *Handler) getState(ctx context.Context, sess Session, state string) ResponseEnvelope {
	if !h.datasets.ValidState(state) {
		return ask(sess, h.prompts.Reprompt, "")
	}

	next, err := h.summarize(ctx, state)
	if err != nil {
		return h.apologize(ctx, sess, "summarize", err)
	}

	if sess.Email {
		return h.email(ctx, next)
	}
	return ask(next, cleanNarrative(next.Narrative)+" "+h.prompts.Followup, h.prompts.RepromptEmail)
}

func (h *Handler) yesWithState(ctx context.Context, sess Session, state string) ResponseEnvelope {
	if !h.datasets.ValidState(state) {
		return ask(sess, h.prompts.Reprompt, "")
	}

	if sess.State == "" {
		return ask(sess.WithEmail(), h.prompts.NoState, "")
	}

	next, err := h.summarize(ctx, state)
	if err != nil {
		return h.apologize(ctx, sess, "summarize", err)
	}
	return h.email(ctx, next)
}

func (h *Handler) yes(ctx context.Context, sess Session) ResponseEnvelope {
	if sess.State == "" {
		return ask(Session{}, h.prompts.RepromptState, "")
	}
	return h.email(ctx, sess)
}

func (h *Handler) no(sess Session) ResponseEnvelope {
	if sess.State == "" {
		return ask(sess, h.prompts.RepromptState, "")
	}
	return ask(Session{}, h.prompts.Confirmation2, "")
}

// summarize builds the session for state: report, narrative and dashboard link.
func (h *Handler) summarize(ctx context.Context, state string) (Session, error) {
	calcs, err := h.builder.Build(ctx, h.datasets, report.Scope{State: state, Periods: h.periods})
	if err != nil {
		return Session{}, err
	}

	text, err := h.narrator.Generate(ctx, calcs)
	if err != nil {
		return Session{}, fmt.Errorf("generate narrative: %w", err)
	}

	// Labels come from the data, not the utterance.
	state = calcs.StateTopProfitChange
	return Session{
		State:     state,
		URL:       report.DashboardURL(h.dashboard, state),
		Narrative: text,
	}, nil
}

// email sends the session's summary and ends the exchange with a cleared session.
func (h *Handler) email(ctx context.Context, sess Session) ResponseEnvelope {
	err := h.sender.Send(ctx, mailer.Message{State: sess.State, Narrative: sess.Narrative, URL: sess.URL})
	if err != nil {
		return h.apologize(ctx, sess, "email", err)
	}
	return ask(Session{}, h.prompts.Confirmation1, "")
}

func (h *Handler) apologize(ctx context.Context, sess Session, step string, err error) ResponseEnvelope {
	h.log.ErrorContext(ctx, "skill step failed",
		slog.String("step", step),
		slog.String("state", sess.State),
		slog.Any("error", err),
	)
	return ask(sess, h.prompts.Apology, h.prompts.RepromptState)
}

// cleanNarrative makes narrative text speakable.
func cleanNarrative(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	return strings.ReplaceAll(s, "&", "and")
}
