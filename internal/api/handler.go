package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/detygon/evolution-notify/internal/channel"
	"github.com/detygon/evolution-notify/internal/common"
	"github.com/detygon/evolution-notify/internal/message"
)

var (
	sendCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_send_requests_total",
		Help: "Total /v1/send requests received",
	}, []string{"status", "kind"})
	sendLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_send_duration_seconds",
		Help:    "Latency for /v1/send requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

// SendRequest carries one message description and the recipients it goes
// to. Recipients are independent: the response reports each on its own.
type SendRequest struct {
	To       []string        `json:"to"`
	Instance string          `json:"instance,omitempty"`
	Message  json.RawMessage `json:"message"`
}

type RecipientResult struct {
	To        string `json:"to"`
	MessageID string `json:"message_id,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

type SendResponse struct {
	RequestID string            `json:"request_id"`
	Results   []RecipientResult `json:"results"`
}

type Handler struct {
	channel *channel.Channel
	tracer  trace.Tracer
	logger  zerolog.Logger
}

func NewHandler(ch *channel.Channel, logger zerolog.Logger) *Handler {
	return &Handler{
		channel: ch,
		tracer:  otel.Tracer("api"),
		logger:  logger,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/send", h.send)
	return r
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "send")
	defer span.End()

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(ctx, w, http.StatusBadRequest, err)
		return
	}
	if len(req.To) == 0 {
		h.respondErr(ctx, w, http.StatusBadRequest, errors.New("to is required"))
		return
	}
	if len(req.Message) == 0 {
		h.respondErr(ctx, w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	msg, err := message.Decode(req.Message)
	if err != nil {
		h.respondErr(ctx, w, http.StatusBadRequest, err)
		return
	}
	if msg.Instance == "" {
		msg.Instance = req.Instance
	}

	requestID := uuid.NewString()
	span.SetAttributes(
		attribute.String("request.id", requestID),
		attribute.String("message.kind", string(msg.Kind)),
		attribute.Int("recipients", len(req.To)),
	)

	start := time.Now()
	resp := SendResponse{RequestID: requestID, Results: make([]RecipientResult, 0, len(req.To))}
	failed := 0

	for _, to := range req.To {
		res, err := h.channel.Send(ctx, channel.Recipient{WhatsAppNumber: to}, messageNotification{msg: msg})
		if err != nil {
			failed++
			resp.Results = append(resp.Results, RecipientResult{To: to, Status: "failed", Error: err.Error()})
			continue
		}
		resp.Results = append(resp.Results, RecipientResult{To: to, MessageID: res.MessageID, Status: res.Status})
	}

	sendLatency.WithLabelValues(string(msg.Kind)).Observe(time.Since(start).Seconds())
	sendCounter.WithLabelValues(outcomeLabel(failed, len(req.To)), string(msg.Kind)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(failed, len(req.To)))
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) respondErr(ctx context.Context, w http.ResponseWriter, status int, err error) {
	logger := common.WithContext(ctx, h.logger)
	logger.Error().Err(err).Int("status", status).Msg("send handler failed")
	sendCounter.WithLabelValues("rejected", "unknown").Inc()
	http.Error(w, err.Error(), status)
}

func statusFor(failed, total int) int {
	switch {
	case failed == 0:
		return http.StatusAccepted
	case failed == total:
		return http.StatusBadGateway
	default:
		return http.StatusMultiStatus
	}
}

func outcomeLabel(failed, total int) string {
	switch {
	case failed == 0:
		return "accepted"
	case failed == total:
		return "failed"
	default:
		return "partial"
	}
}

// messageNotification adapts an already-built description to the channel's
// notification contract for wire-originated sends.
type messageNotification struct {
	msg *message.Message
}

func (n messageNotification) Channels(any) []string { return []string{channel.Name} }

func (n messageNotification) ToWhatsApp(any) *message.Message { return n.msg }
