package conversation

// AttachmentKind classifies an inbound attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentVideo AttachmentKind = "video"
	AttachmentFile  AttachmentKind = "file"
)

// Placeholder pattern tokens. When a message carries attachments, its text is
// replaced with the token for the attachment kind so the engine knows to look
// at the attachment lists instead of the text.
const (
	ImagePattern = "%%%_IMAGE_%%%"
	AudioPattern = "%%%_AUDIO_%%%"
	VideoPattern = "%%%_VIDEO_%%%"
	FilePattern  = "%%%_FILE_%%%"
)

// PatternFor returns the placeholder token for the given attachment kind.
func PatternFor(kind AttachmentKind) string {
	switch kind {
	case AttachmentImage:
		return ImagePattern
	case AttachmentAudio:
		return AudioPattern
	case AttachmentVideo:
		return VideoPattern
	case AttachmentFile:
		return FilePattern
	}
	return ""
}

// Attachment is an inbound binary payload, embedded as a data URI.
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	URL  string         `json:"url"`
}

// Answer carries the interactive-reply metadata extracted from the raw event.
type Answer struct {
	Text        string `json:"text"`
	Value       string `json:"value"`
	Interactive bool   `json:"interactive"`
}

// IncomingMessage is the canonical, dialect-independent message handed to the
// conversational engine. At most one attachment kind is populated per message;
// the gateway signals a single attachment kind per event.
type IncomingMessage struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`

	// RawPayload retains the original event so the engine can reach fields
	// the canonical model does not carry.
	RawPayload map[string]any `json:"rawPayload,omitempty"`

	Images []Attachment `json:"images,omitempty"`
	Audio  []Attachment `json:"audio,omitempty"`
	Videos []Attachment `json:"videos,omitempty"`
	Files  []Attachment `json:"files,omitempty"`

	Extras map[string]string `json:"extras,omitempty"`

	// Answer is the conversation-answer view of this message, populated by
	// dialects that carry interactive-reply metadata.
	Answer *Answer `json:"answer,omitempty"`
}

// AddExtra attaches auxiliary metadata to the message.
func (m *IncomingMessage) AddExtra(key, value string) {
	if m.Extras == nil {
		m.Extras = make(map[string]string)
	}
	m.Extras[key] = value
}

// SetAttachments stores the encoded attachments on the list matching kind and
// overwrites the text with the kind's placeholder token.
func (m *IncomingMessage) SetAttachments(kind AttachmentKind, attachments []Attachment) {
	switch kind {
	case AttachmentImage:
		m.Images = attachments
	case AttachmentAudio:
		m.Audio = attachments
	case AttachmentVideo:
		m.Videos = attachments
	case AttachmentFile:
		m.Files = attachments
	default:
		return
	}
	m.Text = PatternFor(kind)
}

// User identifies the person behind a message.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// UserFor derives the user identity from a canonical message.
func UserFor(msg IncomingMessage) User {
	return User{
		ID:   msg.Sender,
		Name: msg.Extras["userName"],
	}
}

// GenericEvent is a named out-of-band event carried on a webhook payload
// instead of a chat message.
type GenericEvent struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}
