package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookClient_SendText(t *testing.T) {
	var got sendTextRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL, "secret")
	err := c.SendText(context.Background(), 42, "hello", Keyboard{{{Text: "Menu", Action: "main_menu"}}})
	require.NoError(t, err)

	assert.Equal(t, "/send-text", path)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, int64(42), got.Recipient)
	assert.Equal(t, "main_menu", got.Keyboard[0][0].Action)
}

func TestWebhookClient_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookClient(srv.URL, "").SendPhoto(context.Background(), 1, "file-1", "")
	assert.ErrorContains(t, err, "502")
}

func TestWebhookClient_AnswerWithoutEventIsNoop(t *testing.T) {
	c := NewWebhookClient("http://127.0.0.1:0", "")
	assert.NoError(t, c.AnswerEvent(context.Background(), "", "ok"))
}
