package whatsapp

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/chatflow-io/whatsapp-adapter/internal/conversation"
)

// DriverName is the driver discriminator the gateway stamps on form payloads.
const DriverName = "Whatsapp"

// Dialect is one supported webhook payload shape. The adapter is a single
// pipeline parameterized by a dialect; dialects only differ in how they parse
// events, claim requests, and resolve the callback target.
type Dialect interface {
	Name() string
	// ParseRequest extracts the dialect's raw event, uploaded files, and
	// client metadata from the HTTP request. A malformed body is not an
	// error; it yields a payload that normalizes to zero messages.
	ParseRequest(r *http.Request) (*Payload, error)
	// Matches reports whether this dialect claims the parsed payload.
	Matches(p *Payload) bool
	// Normalize converts the payload into canonical incoming messages,
	// preserving event order.
	Normalize(p *Payload) ([]conversation.IncomingMessage, error)
	// ResolveTargetURL returns the callback URL for the payload, or empty
	// when no target can be resolved.
	ResolveTargetURL(p *Payload) string
}

// Payload is the parsed form of one inbound webhook request.
type Payload struct {
	// Event holds the normalized event map (form fields, or the JSON
	// envelope's top-level fields).
	Event map[string]any
	// Events holds the JSON dialect's message list.
	Events []JSONEvent
	// Files holds uploaded attachments (form dialect only).
	Files []UploadedFile
	// Raw retains the full original payload for downstream access.
	Raw map[string]any
	// Client is the request's embedded client metadata, already structured.
	Client json.RawMessage

	// cleanup releases resources the parse spooled to disk.
	cleanup func() error
}

// Close releases any temp files the HTTP layer spooled while parsing. The
// caller that triggered ParseRequest owns this; the server's automatic
// multipart cleanup does not cover requests parsed off a cloned body.
func (p *Payload) Close() error {
	if p == nil || p.cleanup == nil {
		return nil
	}
	cleanup := p.cleanup
	p.cleanup = nil
	return cleanup()
}

// JSONEvent is one entry of the JSON dialect's messages array.
type JSONEvent struct {
	Body       string `json:"body"`
	Author     string `json:"author"`
	ChatID     string `json:"chatId"`
	SenderName string `json:"senderName"`
	FromMe     bool   `json:"fromMe"`
}

// GenericEvent returns the out-of-band event carried on the payload, if any.
func (p *Payload) GenericEvent() *conversation.GenericEvent {
	data, ok := p.Event["eventData"]
	if !ok {
		return nil
	}
	name, _ := p.Event["eventName"].(string)
	return &conversation.GenericEvent{Name: name, Payload: data}
}

var errNoFileSource = errors.New("whatsapp: uploaded file has no readable source")

// UploadedFile is one uploaded attachment. It is either spooled by the HTTP
// layer as a multipart part or referenced by a raw tmp_name path when the
// gateway forwards files outside the multipart channel.
type UploadedFile struct {
	Name   string
	Path   string
	header *multipart.FileHeader
}

// NewUploadedFile wraps a multipart file header.
func NewUploadedFile(header *multipart.FileHeader) UploadedFile {
	return UploadedFile{Name: header.Filename, header: header}
}

// Open returns the file content for reading.
func (f UploadedFile) Open() (io.ReadCloser, error) {
	if f.header != nil {
		return f.header.Open()
	}
	if f.Path != "" {
		return os.Open(f.Path)
	}
	return nil, errNoFileSource
}

func stringField(event map[string]any, key string) string {
	value, _ := event[key].(string)
	return value
}
