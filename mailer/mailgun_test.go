package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var texas = Message{
	State:     "Texas",
	Narrative: "Texas profit fell 5%.",
	URL:       "http://dash.example/open?file=x&configurationBlock=State%3D%27Texas%27",
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Spotfire Analysis for: Texas", texas.Subject())
	assert.Equal(t, "Texas profit fell 5%.\nView your Spotfire dashboard here: "+texas.URL, texas.Text())
}

func TestBuildHTML(t *testing.T) {
	got := BuildHTML(texas)

	assert.Equal(t,
		"Hello,<br><p>Below is the report you requested from Alexa.</p>"+
			"<p>Have a great day!<br>Your Friends at TIBCO Spotfire</p><br>"+
			"<h2>Summary for Texas</h2>"+
			"<p>Texas profit fell 5%.</p>"+
			`<p><a href="http://dash.example/open?file=x&amp;configurationBlock=State%3D%27Texas%27">Click here to view an in-depth summary report for Texas.</a></p><br>`+
			`<p><img src="`+logoURL+`"></p>`,
		got)
}

func TestBuildHTML_Escapes(t *testing.T) {
	got := BuildHTML(Message{
		State:     "<b>Hawai'i</b>",
		Narrative: "Tools & Machines rose",
		URL:       `http://x/?q="a'b"`,
	})

	assert.Contains(t, got, "<h2>Summary for &lt;b&gt;Hawai&#39;i&lt;/b&gt;</h2>")
	assert.Contains(t, got, "<p>Tools &amp; Machines rose</p>")
	assert.Contains(t, got, `href="http://x/?q=&#34;a&#39;b&#34;"`)
	assert.NotContains(t, got, "<b>")
}

func TestConfig_Validate(t *testing.T) {
	err := Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
	assert.Contains(t, err.Error(), "recipient")
	assert.Contains(t, err.Error(), "sender")

	assert.NoError(t, Config{APIKey: "k", To: "a@x", From: "b@x"}.Validate())
}

func TestMailgun_Send(t *testing.T) {
	var (
		path string
		user string
		pass string
		form map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		user, pass, _ = r.BasicAuth()
		assert.NoError(t, r.ParseForm())
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Write([]byte(`{"id":"<1@x>","message":"Queued. Thank you."}`))
	}))
	t.Cleanup(srv.Close)

	m := NewMailgun(Config{BaseURL: srv.URL, Domain: "mg.example", APIKey: "key-1", To: "to@x", From: "from@x"})
	require.NoError(t, m.Send(context.Background(), texas))

	assert.Equal(t, "/mg.example/messages", path)
	assert.Equal(t, "api", user)
	assert.Equal(t, "key-1", pass)
	assert.Equal(t, "to@x", form["to"])
	assert.Equal(t, "from@x", form["from"])
	assert.Equal(t, "Spotfire Analysis for: Texas", form["subject"])
	assert.Equal(t, texas.Text(), form["text"])
	assert.Equal(t, BuildHTML(texas), form["html"])

	_, err := uuid.Parse(form["v:request_id"])
	assert.NoError(t, err)
}

func TestMailgun_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	m := NewMailgun(Config{BaseURL: srv.URL, APIKey: "bad", To: "to@x", From: "from@x"})
	err := m.Send(context.Background(), texas)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailgun returned 403")
	assert.Contains(t, err.Error(), "Forbidden")
}
