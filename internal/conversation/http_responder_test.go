package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatflow-io/whatsapp-adapter/pkg/logging"
)

func TestHTTPResponderDecodesReplies(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		Message IncomingMessage `json:"message"`
		User    User            `json:"user"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"replies":[
			{"text":"hello","additionalParameters":{"contact_phone":"+15551234"}},
			{"web":{"type":"typing"},"additionalParameters":{}}
		]}`))
	}))
	defer srv.Close()

	responder := NewHTTPResponder(srv.URL, "secret", time.Second, logging.New("error"))
	msg := IncomingMessage{Text: "hi", Sender: "u1"}
	msg.AddExtra("userName", "Bob")
	replies, err := responder.Respond(context.Background(), msg)
	require.NoError(t, err)
	require.Len(t, replies, 2)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "hi", gotBody.Message.Text)
	assert.Equal(t, User{ID: "u1", Name: "Bob"}, gotBody.User, "user identity rides along")

	out, ok := replies[0].Message.(*OutgoingMessage)
	require.True(t, ok)
	assert.Equal(t, "hello", out.Text)
	assert.Equal(t, "+15551234", replies[0].AdditionalParameters["contact_phone"])

	web, ok := replies[1].Message.(WebPayload)
	require.True(t, ok)
	assert.Equal(t, "typing", web["type"])
}

func TestHTTPResponderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	responder := NewHTTPResponder(srv.URL, "", time.Second, logging.New("error"))
	_, err := responder.Respond(context.Background(), IncomingMessage{Text: "hi"})
	assert.Error(t, err)
}

func TestHTTPResponderMissingEndpoint(t *testing.T) {
	responder := NewHTTPResponder("", "", time.Second, nil)
	_, err := responder.Respond(context.Background(), IncomingMessage{})
	assert.Error(t, err)
}

func TestHTTPResponderForwardsEvent(t *testing.T) {
	var gotBody struct {
		Event GenericEvent `json:"event"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	responder := NewHTTPResponder(srv.URL, "", time.Second, logging.New("error"))
	err := responder.HandleEvent(context.Background(), GenericEvent{Name: "user_joined", Payload: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "user_joined", gotBody.Event.Name)
	assert.Equal(t, "u1", gotBody.Event.Payload)
}
