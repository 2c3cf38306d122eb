package whatsapp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chatflow-io/whatsapp-adapter/internal/conversation"
)

const maxMultipartMemory = 32 << 20

// FormDialect parses the form-encoded webhook shape: events arrive as form
// fields, attachments as uploaded files.
type FormDialect struct {
	// Matching is the key/value subset an event must carry for this dialect
	// to claim the request.
	Matching map[string]string
}

// NewFormDialect builds the form dialect with the configured matching data.
func NewFormDialect(matching map[string]string) *FormDialect {
	if len(matching) == 0 {
		matching = map[string]string{"driver": DriverName}
	}
	return &FormDialect{Matching: matching}
}

var _ Dialect = (*FormDialect)(nil)

func (d *FormDialect) Name() string { return "form" }

// ParseRequest reads the form (or multipart) body into an event map and
// collects uploaded files from every file field.
func (d *FormDialect) ParseRequest(r *http.Request) (*Payload, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && err != http.ErrNotMultipart {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
	}

	event := make(map[string]any, len(r.PostForm))
	for key := range r.PostForm {
		event[key] = r.PostForm.Get(key)
	}

	var files []UploadedFile
	var cleanup func() error
	if r.MultipartForm != nil {
		cleanup = r.MultipartForm.RemoveAll
		for _, headers := range r.MultipartForm.File {
			for _, header := range headers {
				files = append(files, NewUploadedFile(header))
			}
		}
	}
	// Gateways that spool uploads themselves reference them by path instead
	// of re-sending the bytes.
	if len(files) == 0 {
		if path := stringField(event, "tmp_name"); path != "" {
			files = append(files, UploadedFile{Path: path})
		}
	}

	var client json.RawMessage
	if raw := stringField(event, "client"); raw != "" && json.Valid([]byte(raw)) {
		client = json.RawMessage(raw)
	}

	return &Payload{
		Event:   event,
		Files:   files,
		Raw:     event,
		Client:  client,
		cleanup: cleanup,
	}, nil
}

// Matches reports whether every configured key/value pair is present and
// equal in the event.
func (d *FormDialect) Matches(p *Payload) bool {
	for key, want := range d.Matching {
		if stringField(p.Event, key) != want {
			return false
		}
	}
	return true
}

// Normalize builds exactly one canonical message from the form event.
func (d *FormDialect) Normalize(p *Payload) ([]conversation.IncomingMessage, error) {
	event := p.Event
	userID := stringField(event, "userId")
	sender := stringField(event, "sender")
	if sender == "" {
		sender = userID
	}

	msg := conversation.IncomingMessage{
		Text:       stringField(event, "message"),
		Sender:     sender,
		Recipient:  userID,
		RawPayload: p.Raw,
	}

	// Unknown attachment kinds pass through as plain text events.
	if kind := conversation.AttachmentKind(stringField(event, "attachment")); conversation.PatternFor(kind) != "" {
		attachments, err := EncodeAttachments(p.Files, kind)
		if err != nil {
			return nil, fmt.Errorf("encode %s attachments: %w", kind, err)
		}
		msg.SetAttachments(kind, attachments)
	}

	value := msg.Text
	if raw, ok := event["value"]; ok {
		value, _ = raw.(string)
	}
	msg.Answer = &conversation.Answer{
		Text:        msg.Text,
		Value:       value,
		Interactive: coerceInteractive(event["interactive"]),
	}

	return []conversation.IncomingMessage{msg}, nil
}

// ResolveTargetURL reads the callback URL from the request's client metadata.
func (d *FormDialect) ResolveTargetURL(p *Payload) string {
	if len(p.Client) == 0 {
		return ""
	}
	var client struct {
		SenderURL string `json:"sender_url"`
	}
	if err := json.Unmarshal(p.Client, &client); err != nil {
		return ""
	}
	return client.SenderURL
}

// coerceInteractive turns the raw interactive field into a boolean. Textual
// values are true unless they are the literal "false" or "0"; everything else
// follows ordinary truthiness.
func coerceInteractive(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != "false" && v != "0"
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}
