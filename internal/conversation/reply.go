package conversation

// OutboundAttachment is a single attachment on an outgoing message.
type OutboundAttachment struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Web renders the attachment in the gateway's web-driver shape.
func (a *OutboundAttachment) Web() map[string]any {
	return map[string]any{
		"type": a.Type,
		"url":  a.URL,
	}
}

// OutgoingMessage is a plain text reply with an optional single attachment.
type OutgoingMessage struct {
	Text       string
	Attachment *OutboundAttachment
}

// WebPayload is a pre-rendered, web-ready reply used as-is on the wire.
type WebPayload map[string]any

// TypingIndicator builds the web payload the gateway renders as a typing
// indicator. Zero seconds means "show until the next message".
func TypingIndicator(seconds float64) WebPayload {
	payload := WebPayload{"type": "typing"}
	if seconds > 0 {
		payload["seconds"] = seconds
	}
	return payload
}

// Reply is one engine-produced directive to send a message back to the user.
// Message must be either an *OutgoingMessage or a WebPayload; anything else is
// an unsupported shape the reply builder flags on the envelope.
type Reply struct {
	Message any
	// AdditionalParameters carries delivery metadata (target contact phone,
	// interactive flags) opaque to the adapter.
	AdditionalParameters map[string]any
}
