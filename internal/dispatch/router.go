package dispatch

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/detygon/evolution-notify/internal/message"
)

// Result is what the gateway reports back for an accepted message.
type Result struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

// Transport is the gateway capability the router drives. Implementations
// are already bound to a gateway instance; every method maps to one
// outbound API call and owns its own retry and timeout policy.
type Transport interface {
	SendText(ctx context.Context, to, text string, quoted bool, delayMs int, linkPreview bool) (Result, error)
	SendImage(ctx context.Context, to, url, caption string) (Result, error)
	SendDocument(ctx context.Context, to, url, filename, caption string) (Result, error)
	SendLocation(ctx context.Context, to string, latitude, longitude float64, name, address string) (Result, error)
	SendContact(ctx context.Context, to, name, number string) (Result, error)
	SendButtons(ctx context.Context, to, title, body, footer string, buttons []message.Button) (Result, error)
	SendList(ctx context.Context, to, title, body, buttonText, footer string, sections []message.ListSection) (Result, error)
	SendPoll(ctx context.Context, to, question string, selectableCount int, options []string) (Result, error)
	SendTemplate(ctx context.Context, to, templateName, language string, components []message.Component) (Result, error)
}

var (
	dispatchCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whatsapp_dispatch_total",
		Help: "Total message dispatch attempts by kind and outcome",
	}, []string{"kind", "status"})
)

// Router validates a message description and hands it to the matching
// transport operation. Exactly one transport call happens per successful
// validation; validation failures make none.
type Router struct {
	Logger zerolog.Logger
}

func (r *Router) Dispatch(ctx context.Context, t Transport, to string, msg *message.Message) (Result, error) {
	kind := msg.Kind
	if kind == "" {
		kind = message.KindText
	}

	ctx, span := otel.Tracer("dispatch").Start(ctx, "dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("message.kind", string(kind)))

	res, err := r.route(ctx, t, to, kind, msg)
	if err != nil {
		span.RecordError(err)
		dispatchCounter.WithLabelValues(string(kind), "error").Inc()
		r.Logger.Error().Err(err).Str("kind", string(kind)).Msg("dispatch failed")
		return Result{}, err
	}

	dispatchCounter.WithLabelValues(string(kind), "sent").Inc()
	r.Logger.Debug().Str("kind", string(kind)).Str("message_id", res.MessageID).Msg("message dispatched")
	return res, nil
}

func (r *Router) route(ctx context.Context, t Transport, to string, kind message.Kind, msg *message.Message) (Result, error) {
	if err := msg.Err(); err != nil {
		return Result{}, &ValidationError{Kind: kind, Cause: err}
	}

	switch kind {
	case message.KindText:
		if msg.Text == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "text"}
		}
		return t.SendText(ctx, to, msg.Text, msg.Quoted, msg.DelayMs, msg.LinkPreview)

	case message.KindImage:
		if msg.URL == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "url"}
		}
		return t.SendImage(ctx, to, msg.URL, msg.Caption)

	case message.KindDocument:
		if msg.URL == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "url"}
		}
		filename := msg.Filename
		if filename == "" {
			filename = message.DefaultFilename
		}
		return t.SendDocument(ctx, to, msg.URL, filename, msg.Caption)

	case message.KindLocation:
		return t.SendLocation(ctx, to, msg.Latitude, msg.Longitude, msg.Name, msg.Address)

	case message.KindContact:
		if msg.ContactName == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "contact_name"}
		}
		if msg.ContactNumber == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "contact_number"}
		}
		return t.SendContact(ctx, to, msg.ContactName, msg.ContactNumber)

	case message.KindButtons:
		if msg.Title == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "title"}
		}
		if msg.Body == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "body"}
		}
		return t.SendButtons(ctx, to, msg.Title, msg.Body, msg.Footer, msg.Buttons)

	case message.KindList:
		if msg.Title == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "title"}
		}
		if msg.Body == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "body"}
		}
		if msg.ButtonText == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "buttonText"}
		}
		return t.SendList(ctx, to, msg.Title, msg.Body, msg.ButtonText, msg.Footer, msg.Sections)

	case message.KindPoll:
		if msg.Question == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "question"}
		}
		count := msg.SelectableCount
		if count == 0 {
			count = message.DefaultSelectableCount
		}
		return t.SendPoll(ctx, to, msg.Question, count, msg.PollOptions)

	case message.KindTemplate:
		if msg.TemplateName == "" {
			return Result{}, &ValidationError{Kind: kind, Field: "templateName"}
		}
		language := msg.Language
		if language == "" {
			language = message.DefaultLanguage
		}
		return t.SendTemplate(ctx, to, msg.TemplateName, language, msg.Components)

	default:
		return Result{}, &UnsupportedKindError{Kind: kind}
	}
}
