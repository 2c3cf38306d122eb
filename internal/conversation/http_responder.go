package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chatflow-io/whatsapp-adapter/pkg/logging"
)

// HTTPResponder forwards canonical messages to a conversational engine over
// HTTP and decodes the engine's reply directives.
type HTTPResponder struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewHTTPResponder builds a responder targeting the given engine endpoint.
func NewHTTPResponder(endpoint, authToken string, timeout time.Duration, logger *logging.Logger) *HTTPResponder {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPResponder{
		endpoint:  endpoint,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

var _ Responder = (*HTTPResponder)(nil)

// engineReply is the wire shape of one directive in the engine's response.
type engineReply struct {
	Text                 string              `json:"text"`
	Attachment           *OutboundAttachment `json:"attachment"`
	Web                  map[string]any      `json:"web"`
	AdditionalParameters map[string]any      `json:"additionalParameters"`
}

type engineResponse struct {
	Replies []engineReply `json:"replies"`
}

// engineRequest is the wire shape posted to the engine: the canonical message
// plus the derived user identity.
type engineRequest struct {
	Message IncomingMessage `json:"message"`
	User    User            `json:"user"`
}

// Respond posts the canonical message to the engine and decodes its replies.
func (r *HTTPResponder) Respond(ctx context.Context, msg IncomingMessage) ([]Reply, error) {
	if r.endpoint == "" {
		return nil, errors.New("conversation: engine endpoint not configured")
	}
	body, err := json.Marshal(engineRequest{Message: msg, User: UserFor(msg)})
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	resp, err := r.post(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("engine request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read engine response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("engine responded with status %d", resp.StatusCode)
	}

	var decoded engineResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode engine response: %w", err)
	}

	replies := make([]Reply, 0, len(decoded.Replies))
	for _, entry := range decoded.Replies {
		params := entry.AdditionalParameters
		if params == nil {
			params = map[string]any{}
		}
		if entry.Web != nil {
			replies = append(replies, Reply{Message: WebPayload(entry.Web), AdditionalParameters: params})
			continue
		}
		replies = append(replies, Reply{
			Message:              &OutgoingMessage{Text: entry.Text, Attachment: entry.Attachment},
			AdditionalParameters: params,
		})
	}
	r.logger.Debug("engine responded", "replies", len(replies))
	return replies, nil
}

var _ EventHandler = (*HTTPResponder)(nil)

// HandleEvent forwards an out-of-band gateway event to the engine. Only the
// response status matters; the body is discarded.
func (r *HTTPResponder) HandleEvent(ctx context.Context, event GenericEvent) error {
	if r.endpoint == "" {
		return errors.New("conversation: engine endpoint not configured")
	}
	body, err := json.Marshal(struct {
		Event GenericEvent `json:"event"`
	}{Event: event})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	resp, err := r.post(ctx, body)
	if err != nil {
		return fmt.Errorf("engine request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("engine responded with status %d", resp.StatusCode)
	}
	return nil
}

func (r *HTTPResponder) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build engine request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}
	return r.httpClient.Do(req)
}
