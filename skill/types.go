package skill

// ============================================================================
// WIRE TYPES — Voice skill request/response envelopes (plain-text speech only)
// ============================================================================

// Request types.
const (
	LaunchRequest       = "LaunchRequest"
	IntentRequest       = "IntentRequest"
	SessionEndedRequest = "SessionEndedRequest"
)

// Intent names.
const (
	IntentGetState     = "GetState"
	IntentYesWithState = "YesIntent"
	IntentYes          = "AMAZON.YesIntent"
	IntentNo           = "AMAZON.NoIntent"
	IntentStop         = "AMAZON.StopIntent"
	IntentCancel       = "AMAZON.CancelIntent"
)

// Envelope is an incoming skill request.
type Envelope struct {
	Version string         `json:"version"`
	Session RequestSession `json:"session"`
	Request Request        `json:"request"`
}

// RequestSession carries the attributes echoed back from the previous response.
type RequestSession struct {
	New        bool           `json:"new"`
	SessionID  string         `json:"sessionId"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Request is the request body of an Envelope.
type Request struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Intent    Intent `json:"intent"`
}

// Intent is a resolved user intent with its slots.
type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

// Slot is one named intent parameter.
type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// SlotValue returns the value of the named slot, or "".
func (i Intent) SlotValue(name string) string {
	return i.Slots[name].Value
}

// ResponseEnvelope is the reply to an Envelope.
type ResponseEnvelope struct {
	Version           string         `json:"version"`
	SessionAttributes map[string]any `json:"sessionAttributes,omitempty"`
	Response          Response       `json:"response"`
}

// Response holds the speech and whether the conversation ends.
type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

// OutputSpeech is plain-text speech.
type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reprompt is spoken when the user does not answer.
type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

// ============================================================================
// SESSION — Conversation state carried between turns
// ============================================================================

// Session is the conversation state. Handlers never mutate it; they return a new one.
type Session struct {
	State     string
	URL       string
	Narrative string
	Email     bool
}

// SessionFromAttributes reads a Session from request attributes. Unknown keys are ignored.
func SessionFromAttributes(attrs map[string]any) Session {
	str := func(key string) string {
		s, _ := attrs[key].(string)
		return s
	}
	email, _ := attrs["email"].(bool)
	return Session{
		State:     str("state"),
		URL:       str("url"),
		Narrative: str("narrative"),
		Email:     email,
	}
}

// Attributes returns the session as response attributes. Empty fields are omitted.
func (s Session) Attributes() map[string]any {
	attrs := map[string]any{}
	if s.State != "" {
		attrs["state"] = s.State
	}
	if s.URL != "" {
		attrs["url"] = s.URL
	}
	if s.Narrative != "" {
		attrs["narrative"] = s.Narrative
	}
	if s.Email {
		attrs["email"] = true
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// WithEmail returns a copy with the email flag set.
func (s Session) WithEmail() Session {
	s.Email = true
	return s
}

// ============================================================================
// RESPONSE BUILDERS
// ============================================================================

func speech(text string) *OutputSpeech {
	return &OutputSpeech{Type: "PlainText", Text: text}
}

// ask keeps the session open.
func ask(sess Session, text, reprompt string) ResponseEnvelope {
	resp := ResponseEnvelope{
		Version:           "1.0",
		SessionAttributes: sess.Attributes(),
		Response:          Response{OutputSpeech: speech(text)},
	}
	if reprompt != "" {
		resp.Response.Reprompt = &Reprompt{OutputSpeech: *speech(reprompt)}
	}
	return resp
}

// tell ends the session.
func tell(text string) ResponseEnvelope {
	return ResponseEnvelope{
		Version:  "1.0",
		Response: Response{OutputSpeech: speech(text), ShouldEndSession: true},
	}
}
