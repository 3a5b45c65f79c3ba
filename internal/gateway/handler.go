// Package gateway receives Lark event callbacks over HTTP. It answers the URL
// verification handshake, checks the verification token, drops redelivered
// events and hands the rest to a Dispatcher.
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yolodolo42/safebot/internal/observability"
	"github.com/yolodolo42/safebot/internal/ttl"
)

const (
	// DefaultDedupWindow is how long an event id is remembered.
	DefaultDedupWindow = 5 * time.Minute

	maxBodyBytes = 1 << 20
)

// Dispatcher handles a verified, first-seen event. The result is written back
// as the response body; nil becomes {}.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev *Event) (any, error)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, ev *Event) (any, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, ev *Event) (any, error) {
	return f(ctx, ev)
}

// Handler is the webhook endpoint.
type Handler struct {
	token      string
	dispatcher Dispatcher
	seen       *ttl.Set[string]
	now        func() time.Time
	metrics    *observability.Metrics
	log        zerolog.Logger
}

// Option configures Handler.
type Option func(*handlerOptions)

type handlerOptions struct {
	window  time.Duration
	now     func() time.Time
	metrics *observability.Metrics
	log     zerolog.Logger
}

// WithDedupWindow overrides DefaultDedupWindow.
func WithDedupWindow(d time.Duration) Option {
	return func(o *handlerOptions) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithClock sets the time source for dedup expiry and request timing.
func WithClock(now func() time.Time) Option {
	return func(o *handlerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics records one observation per request outcome.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *handlerOptions) { o.metrics = m }
}

// WithLogger sets the handler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *handlerOptions) { o.log = l }
}

// New creates a Handler that accepts callbacks signed with verificationToken.
func New(verificationToken string, d Dispatcher, opts ...Option) *Handler {
	o := handlerOptions{
		window: DefaultDedupWindow,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Handler{
		token:      verificationToken,
		dispatcher: d,
		seen:       ttl.NewSet[string](o.window, ttl.WithClock(o.now)),
		now:        o.now,
		metrics:    o.metrics,
		log:        o.log,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	reqID := uuid.NewString()
	w.Header().Set("X-Request-Id", reqID)
	log := h.log.With().Str("request_id", reqID).Logger()

	outcome := h.serve(w, r, log)

	h.metrics.ObserveGateway(outcome, h.now().Sub(start))
	log.Info().Str("outcome", outcome).Dur("took", h.now().Sub(start)).Msg("webhook handled")
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, log zerolog.Logger) string {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
		return observability.OutcomeMalformed
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Error().Err(err).Msg("read webhook body")
		writeServerError(w)
		return observability.OutcomeError
	}
	if e := log.Debug(); e.Enabled() {
		e.RawJSON("payload", redactedJSON(body)).Msg("webhook received")
	}

	p, err := parsePayload(body)
	if err != nil {
		log.Warn().Err(err).Msg("reject webhook")
		writeServerError(w)
		return observability.OutcomeMalformed
	}

	if p.isHandshake() {
		if !h.tokenMatches(p.Token) {
			log.Warn().Err(ErrAuthRejected).Msg("reject url verification")
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid token"})
			return observability.OutcomeTokenRejected
		}
		writeJSON(w, http.StatusOK, map[string]json.RawMessage{"challenge": p.Challenge})
		return observability.OutcomeHandshake
	}

	ev := p.event(body)
	log = log.With().Str("event_id", ev.ID()).Str("event_type", ev.Type()).Logger()

	// Payloads without a header carry no token to check.
	if p.Header != nil && !h.tokenMatches(p.Header.Token) {
		log.Warn().Err(ErrAuthRejected).Msg("reject event")
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid token"})
		return observability.OutcomeTokenRejected
	}

	if id := ev.ID(); id != "" && !h.seen.Add(id) {
		log.Info().Msg("duplicate event skipped")
		writeJSON(w, http.StatusOK, struct{}{})
		return observability.OutcomeDedupSkipped
	}

	result, err := h.dispatch(r.Context(), ev)
	if err != nil {
		log.Error().Err(err).Msg("dispatch event")
		writeServerError(w)
		return observability.OutcomeError
	}
	if result == nil {
		result = struct{}{}
	}
	writeJSON(w, http.StatusOK, result)
	return observability.OutcomeDispatched
}

// dispatch converts a panic in the dispatcher into an error.
func (h *Handler) dispatch(ctx context.Context, ev *Event) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("dispatcher panic: %v", rec)
		}
	}()
	if h.dispatcher == nil {
		return nil, errors.New("no dispatcher configured")
	}
	return h.dispatcher.Dispatch(ctx, ev)
}

func (h *Handler) tokenMatches(got string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

func redactedJSON(body []byte) []byte {
	s := RedactPayload(body)
	if s == "" || !json.Valid([]byte(s)) {
		b, _ := json.Marshal(s)
		return b
	}
	return []byte(s)
}

func writeServerError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
