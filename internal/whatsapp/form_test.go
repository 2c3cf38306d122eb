package whatsapp

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatflow-io/whatsapp-adapter/internal/conversation"
)

func newFormRequest(t *testing.T, fields map[string]string) *Payload {
	t.Helper()
	values := url.Values{}
	for key, value := range fields {
		values.Set(key, value)
	}
	req := httptest.NewRequest("POST", "/webhooks/whatsapp", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	payload, err := NewFormDialect(nil).ParseRequest(req)
	require.NoError(t, err)
	return payload
}

func newMultipartRequest(t *testing.T, fields map[string]string, files map[string][]byte) *Payload {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(name, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/webhooks/whatsapp", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	payload, err := NewFormDialect(nil).ParseRequest(req)
	require.NoError(t, err)
	return payload
}

func TestFormNormalizeBasicMessage(t *testing.T) {
	dialect := NewFormDialect(nil)
	payload := newFormRequest(t, map[string]string{
		"message": "hi",
		"userId":  "u1",
		"driver":  "Whatsapp",
	})

	messages, err := dialect.Normalize(payload)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	msg := messages[0]
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, "u1", msg.Sender, "sender defaults to userId")
	assert.Equal(t, "u1", msg.Recipient)
	assert.Equal(t, "Whatsapp", msg.RawPayload["driver"])
	require.NotNil(t, msg.Answer)
	assert.Equal(t, "hi", msg.Answer.Value)
	assert.False(t, msg.Answer.Interactive)
}

func TestFormNormalizeExplicitSender(t *testing.T) {
	dialect := NewFormDialect(nil)
	payload := newFormRequest(t, map[string]string{
		"message": "hi",
		"userId":  "u1",
		"sender":  "s9",
	})

	messages, err := dialect.Normalize(payload)
	require.NoError(t, err)
	assert.Equal(t, "s9", messages[0].Sender)
}

func TestFormNormalizeImageAttachments(t *testing.T) {
	dialect := NewFormDialect(nil)
	payload := newMultipartRequest(t,
		map[string]string{"message": "look", "userId": "u1", "attachment": "image"},
		map[string][]byte{
			"image0": []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
			"image1": []byte("plain bytes"),
		},
	)

	messages, err := dialect.Normalize(payload)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	msg := messages[0]
	assert.Equal(t, conversation.ImagePattern, msg.Text)
	require.Len(t, msg.Images, 2)
	for _, att := range msg.Images {
		assert.Equal(t, conversation.AttachmentImage, att.Kind)
		assert.True(t, strings.HasPrefix(att.URL, "data:"), "attachment is a data URI: %s", att.URL)
		assert.Contains(t, att.URL, ";base64,")
	}
	assert.Empty(t, msg.Audio)
	assert.Empty(t, msg.Videos)
	assert.Empty(t, msg.Files)
}

func TestFormNormalizeAttachmentKinds(t *testing.T) {
	cases := []struct {
		kind    string
		pattern string
	}{
		{"audio", conversation.AudioPattern},
		{"video", conversation.VideoPattern},
		{"file", conversation.FilePattern},
	}
	for _, tc := range cases {
		dialect := NewFormDialect(nil)
		payload := newMultipartRequest(t,
			map[string]string{"message": "x", "userId": "u1", "attachment": tc.kind},
			map[string][]byte{"upload": []byte("content")},
		)
		messages, err := dialect.Normalize(payload)
		require.NoError(t, err)
		assert.Equal(t, tc.pattern, messages[0].Text, "kind %s", tc.kind)
	}
}

func TestFormNormalizeUnknownAttachmentKind(t *testing.T) {
	dialect := NewFormDialect(nil)
	payload := newFormRequest(t, map[string]string{
		"message":    "where are you",
		"userId":     "u1",
		"attachment": "location",
		"tmp_name":   "/nonexistent/upload",
	})

	messages, err := dialect.Normalize(payload)
	require.NoError(t, err, "unhandled kinds never touch the files")
	require.Len(t, messages, 1)
	assert.Equal(t, "where are you", messages[0].Text)
	assert.Empty(t, messages[0].Images)
	assert.Empty(t, messages[0].Files)
}

func TestFormCloseRemovesSpooledFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("userId", "u1"))
	part, err := writer.CreateFormFile("upload", "big.bin")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xAB}, maxMultipartMemory+(1<<20)))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/webhooks/whatsapp", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	payload, err := NewFormDialect(nil).ParseRequest(req)
	require.NoError(t, err)
	require.Len(t, payload.Files, 1)

	spooled, err := filepath.Glob(filepath.Join(tmp, "multipart-*"))
	require.NoError(t, err)
	require.NotEmpty(t, spooled, "oversized part spools to disk")

	require.NoError(t, payload.Close())
	spooled, err = filepath.Glob(filepath.Join(tmp, "multipart-*"))
	require.NoError(t, err)
	assert.Empty(t, spooled, "spooled files removed on close")

	assert.NoError(t, payload.Close(), "close is idempotent")
}

func TestInteractiveCoercion(t *testing.T) {
	cases := []struct {
		value any
		want  bool
	}{
		{"false", false},
		{"0", false},
		{"true", true},
		{"1", true},
		{true, true},
		{false, false},
		{nil, false},
		{float64(0), false},
		{float64(2), true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, coerceInteractive(tc.value), "value %v", tc.value)
	}
}

func TestFormAnswerInteractiveValue(t *testing.T) {
	dialect := NewFormDialect(nil)
	payload := newFormRequest(t, map[string]string{
		"message":     "original",
		"userId":      "u1",
		"interactive": "1",
		"value":       "picked",
	})

	messages, err := dialect.Normalize(payload)
	require.NoError(t, err)
	answer := messages[0].Answer
	require.NotNil(t, answer)
	assert.True(t, answer.Interactive)
	assert.Equal(t, "picked", answer.Value)
	assert.Equal(t, "original", answer.Text)
}

func TestFormMatches(t *testing.T) {
	dialect := NewFormDialect(map[string]string{"driver": "Whatsapp"})

	matching := newFormRequest(t, map[string]string{"driver": "Whatsapp", "message": "hi"})
	assert.True(t, dialect.Matches(matching))

	other := newFormRequest(t, map[string]string{"driver": "Telegram", "message": "hi"})
	assert.False(t, dialect.Matches(other))

	missing := newFormRequest(t, map[string]string{"message": "hi"})
	assert.False(t, dialect.Matches(missing))
}

func TestFormResolveTargetURL(t *testing.T) {
	dialect := NewFormDialect(nil)

	payload := newFormRequest(t, map[string]string{
		"client": `{"sender_url":"http://gateway.example/callback"}`,
	})
	assert.Equal(t, "http://gateway.example/callback", dialect.ResolveTargetURL(payload))

	empty := newFormRequest(t, map[string]string{"message": "hi"})
	assert.Equal(t, "", dialect.ResolveTargetURL(empty))
}

func TestFormGenericEvent(t *testing.T) {
	payload := newFormRequest(t, map[string]string{
		"eventName": "user_joined",
		"eventData": "u1",
	})
	event := payload.GenericEvent()
	require.NotNil(t, event)
	assert.Equal(t, "user_joined", event.Name)
	assert.Equal(t, "u1", event.Payload)

	plain := newFormRequest(t, map[string]string{"message": "hi"})
	assert.Nil(t, plain.GenericEvent())
}
