package whatsapp

import (
	"encoding/json"
	"net/http"

	"github.com/chatflow-io/whatsapp-adapter/internal/conversation"
)

// Envelope is the wire-level structure returned as the webhook's HTTP
// response body and optionally forwarded to the gateway callback.
type Envelope struct {
	Status   int              `json:"status"`
	Messages []map[string]any `json:"messages"`
	Client   json.RawMessage  `json:"client"`

	// ErrorNote records why the status was downgraded. Internal only; it is
	// never serialized onto the wire.
	ErrorNote string `json:"-"`
}

// BuildEnvelope renders the reply directives into the gateway's wire format.
// The transform is order-preserving: directive i produces record i. An
// unsupported message shape downgrades the envelope status to 500 but still
// emits a positional record so downstream indexing stays stable.
func BuildEnvelope(replies []conversation.Reply, client json.RawMessage) *Envelope {
	env := &Envelope{
		Status:   http.StatusOK,
		Messages: make([]map[string]any, 0, len(replies)),
		Client:   client,
	}

	for _, reply := range replies {
		record := map[string]any{}
		switch msg := reply.Message.(type) {
		case conversation.WebPayload:
			for key, value := range msg {
				record[key] = value
			}
		case *conversation.OutgoingMessage:
			var attachment any
			if msg.Attachment != nil {
				attachment = msg.Attachment.Web()
			}
			record["type"] = "text"
			record["text"] = msg.Text
			record["attachment"] = attachment
		default:
			env.Status = http.StatusInternalServerError
			env.ErrorNote = "unsupported message type"
		}

		params := reply.AdditionalParameters
		if params == nil {
			params = map[string]any{}
		}
		record["additionalParameters"] = params
		env.Messages = append(env.Messages, record)
	}

	return env
}

// ContactPhone returns the first reply's contact_phone routing parameter, the
// delivery gate for the outbound callback.
func (e *Envelope) ContactPhone() string {
	if len(e.Messages) == 0 {
		return ""
	}
	params, ok := e.Messages[0]["additionalParameters"].(map[string]any)
	if !ok {
		return ""
	}
	phone, _ := params["contact_phone"].(string)
	return phone
}
