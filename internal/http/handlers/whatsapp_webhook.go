package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/chatflow-io/whatsapp-adapter/internal/conversation"
	observemetrics "github.com/chatflow-io/whatsapp-adapter/internal/observability/metrics"
	"github.com/chatflow-io/whatsapp-adapter/internal/whatsapp"
	"github.com/chatflow-io/whatsapp-adapter/pkg/logging"
)

const maxRequestBody = 64 << 20

// WebhookHandler routes inbound gateway webhooks through the adapter
// pipeline: parse, normalize, engine round-trip, reply build, dispatch.
type WebhookHandler struct {
	dialects   []whatsapp.Dialect
	responder  conversation.Responder
	dispatcher *whatsapp.Dispatcher
	logger     *logging.Logger
	metrics    *observemetrics.AdapterMetrics
}

// WebhookConfig wires the webhook handler's collaborators.
type WebhookConfig struct {
	Dialects   []whatsapp.Dialect
	Responder  conversation.Responder
	Dispatcher *whatsapp.Dispatcher
	Logger     *logging.Logger
	Metrics    *observemetrics.AdapterMetrics
}

func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WebhookHandler{
		dialects:   cfg.Dialects,
		responder:  cfg.Responder,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Handle processes POST /webhooks/whatsapp for both dialects. The first
// dialect that claims the parsed payload wins; an unclaimed request gets 404.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	for _, dialect := range h.dialects {
		req := r.Clone(r.Context())
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
		req.Form, req.PostForm, req.MultipartForm = nil, nil, nil

		payload, err := dialect.ParseRequest(req)
		if err != nil {
			h.logger.Debug("dialect parse failed", "dialect", dialect.Name(), "error", err)
			continue
		}
		if !dialect.Matches(payload) {
			if cerr := payload.Close(); cerr != nil {
				h.logger.Debug("payload cleanup failed", "dialect", dialect.Name(), "error", cerr)
			}
			continue
		}

		defer func() {
			if cerr := payload.Close(); cerr != nil {
				h.logger.Warn("payload cleanup failed", "dialect", dialect.Name(), "error", cerr)
			}
		}()
		h.process(req.Context(), w, dialect, payload, start)
		return
	}

	http.Error(w, "no matching driver", http.StatusNotFound)
}

func (h *WebhookHandler) process(ctx context.Context, w http.ResponseWriter, dialect whatsapp.Dialect, payload *whatsapp.Payload, start time.Time) {
	messages, err := dialect.Normalize(payload)
	if err != nil {
		h.logger.Error("failed to normalize webhook payload", "dialect", dialect.Name(), "error", err)
		h.metrics.ObserveInbound(dialect.Name(), "normalize_error")
		http.Error(w, "processing error", http.StatusInternalServerError)
		return
	}

	if event := payload.GenericEvent(); event != nil {
		if eh, ok := h.responder.(conversation.EventHandler); ok {
			if err := eh.HandleEvent(ctx, *event); err != nil {
				h.logger.Error("engine failed to handle event", "event", event.Name, "error", err)
			}
		} else {
			h.logger.Info("gateway event received", "event", event.Name)
		}
	}

	// Reply accumulation is request-scoped; nothing leaks into the next turn.
	var replies []conversation.Reply
	if h.responder != nil {
		for _, msg := range messages {
			out, err := h.responder.Respond(ctx, msg)
			if err != nil {
				h.logger.Error("engine failed to respond", "dialect", dialect.Name(), "sender", msg.Sender, "error", err)
				continue
			}
			replies = append(replies, out...)
		}
	}

	env := whatsapp.BuildEnvelope(replies, payload.Client)
	if env.ErrorNote != "" {
		h.logger.Warn("reply build downgraded envelope", "note", env.ErrorNote, "status", env.Status)
	}

	if h.dispatcher != nil {
		h.dispatcher.Dispatch(ctx, env, payload, dialect)
	}

	h.metrics.ObserveInbound(dialect.Name(), "ok")
	h.metrics.ObserveWebhookLatency(dialect.Name(), time.Since(start).Seconds())

	// The envelope-level status may be 500 while the transport status stays
	// 200; the gateway reads the envelope, not the HTTP code.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		h.logger.Error("failed to write envelope", "error", err)
	}
}

// HealthCheck returns a simple health check response.
func (h *WebhookHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
