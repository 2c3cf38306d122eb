package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chatflow-io/whatsapp-adapter/internal/audit"
	"github.com/chatflow-io/whatsapp-adapter/internal/observability/metrics"
	"github.com/chatflow-io/whatsapp-adapter/pkg/logging"
)

var dispatchTracer = otel.Tracer("whatsapp_adapter.internal.whatsapp.dispatch")

const (
	auditBefore  = "whatsapp.delivery.before"
	auditSuccess = "whatsapp.delivery.success"
	auditFailure = "whatsapp.delivery.error"
)

// Dispatcher serializes delivery envelopes and performs the conditional
// outbound callback to the gateway. One attempt, no retry; a failed callback
// is logged and audited but never fails the originating webhook response.
type Dispatcher struct {
	httpClient *http.Client
	recorder   audit.Recorder
	logger     *logging.Logger
	metrics    *metrics.AdapterMetrics
}

// NewDispatcher builds a dispatcher with the given callback timeout.
func NewDispatcher(timeout time.Duration, recorder audit.Recorder, logger *logging.Logger, m *metrics.AdapterMetrics) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		recorder: recorder,
		logger:   logger,
		metrics:  m,
	}
}

// Dispatch inspects the envelope's routing metadata and, when the first
// reply carries a contact phone, posts the envelope to the dialect's target
// URL. The dispatch is a no-op unless the dialect claims the originating
// payload.
func (d *Dispatcher) Dispatch(ctx context.Context, env *Envelope, payload *Payload, dialect Dialect) {
	if env == nil || payload == nil || dialect == nil {
		return
	}
	if !dialect.Matches(payload) {
		return
	}

	body, err := json.Marshal(env)
	if err != nil {
		d.logger.Error("failed to encode delivery envelope", "error", err)
		return
	}
	d.record(ctx, auditBefore, string(body))

	if env.ContactPhone() == "" {
		return
	}

	ctx, span := dispatchTracer.Start(ctx, "whatsapp.delivery.callback")
	defer span.End()
	span.SetAttributes(
		attribute.String("whatsapp.dialect", dialect.Name()),
		attribute.Int("whatsapp.reply_count", len(env.Messages)),
	)

	target := dialect.ResolveTargetURL(payload)
	if target == "" {
		err := errors.New("no callback target resolved")
		span.RecordError(err)
		d.fail(ctx, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		d.fail(ctx, fmt.Errorf("build callback request: %w", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		d.fail(ctx, fmt.Errorf("callback request: %w", err))
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("callback responded with status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
		span.RecordError(err)
		d.fail(ctx, err)
		return
	}

	d.record(ctx, auditSuccess, "Done "+string(bytes.TrimSpace(respBody)))
	d.metrics.ObserveCallback("sent")
	d.logger.Info("whatsapp callback delivered", "target", target, "status", resp.StatusCode)
}

func (d *Dispatcher) fail(ctx context.Context, err error) {
	d.record(ctx, auditFailure, err.Error())
	d.metrics.ObserveCallback("failed")
	d.logger.Warn("whatsapp callback failed", "error", err)
}

func (d *Dispatcher) record(ctx context.Context, category, message string) {
	if d.recorder != nil {
		d.recorder.Record(ctx, category, message)
	}
}
