package whatsapp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/chatflow-io/whatsapp-adapter/internal/conversation"
)

const maxJSONBody = 8 << 20

// JSONDialect parses the JSON-body webhook shape: a single envelope carrying
// an instance id and a list of message events. This dialect has no separate
// file channel; the gateway does not forward binary payloads inline in this
// mode.
type JSONDialect struct {
	// GatewayURL is the fixed callback endpoint for this dialect.
	GatewayURL string
	// AuthToken, when set, is appended as the gateway's token query param.
	AuthToken string
}

// NewJSONDialect builds the JSON dialect targeting the configured gateway.
func NewJSONDialect(gatewayURL, authToken string) *JSONDialect {
	return &JSONDialect{GatewayURL: gatewayURL, AuthToken: authToken}
}

var _ Dialect = (*JSONDialect)(nil)

func (d *JSONDialect) Name() string { return "json" }

// ParseRequest decodes the JSON body. A malformed body is non-fatal and
// yields an empty event map; the adapter then produces zero messages.
func (d *JSONDialect) ParseRequest(r *http.Request) (*Payload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return nil, err
	}

	var envelope struct {
		InstanceID string      `json:"instanceId"`
		Messages   []JSONEvent `json:"messages"`
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil || json.Unmarshal(body, &raw) != nil {
		return &Payload{Event: map[string]any{}}, nil
	}

	event := map[string]any{}
	if envelope.InstanceID != "" {
		event["instanceId"] = envelope.InstanceID
	}

	var client json.RawMessage
	if rawClient, ok := raw["client"]; ok {
		if encoded, err := json.Marshal(rawClient); err == nil {
			client = encoded
		}
	}

	return &Payload{
		Event:  event,
		Events: envelope.Messages,
		Raw:    raw,
		Client: client,
	}, nil
}

// Matches claims the request iff the body carried an instance id.
func (d *JSONDialect) Matches(p *Payload) bool {
	return stringField(p.Event, "instanceId") != ""
}

// Normalize converts the event list into canonical messages, dropping every
// entry the gateway marks as self-sent. Output order preserves input order.
func (d *JSONDialect) Normalize(p *Payload) ([]conversation.IncomingMessage, error) {
	messages := make([]conversation.IncomingMessage, 0, len(p.Events))
	for _, event := range p.Events {
		if event.FromMe {
			continue
		}
		msg := conversation.IncomingMessage{
			Text:       event.Body,
			Sender:     event.Author,
			Recipient:  event.ChatID,
			RawPayload: p.Raw,
		}
		if event.SenderName != "" {
			msg.AddExtra("userName", event.SenderName)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// ResolveTargetURL returns the configured gateway endpoint.
func (d *JSONDialect) ResolveTargetURL(p *Payload) string {
	if d.GatewayURL == "" || d.AuthToken == "" {
		return d.GatewayURL
	}
	sep := "?"
	if strings.Contains(d.GatewayURL, "?") {
		sep = "&"
	}
	return d.GatewayURL + sep + "token=" + url.QueryEscape(d.AuthToken)
}
