package channel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/detygon/evolution-notify/internal/dispatch"
	"github.com/detygon/evolution-notify/internal/message"
)

// Name identifies this channel in a notification's channel list.
const Name = "evolution-whatsapp"

// Notification is the event contract a host hands to the channel. A nil
// message from ToWhatsApp means the notification has nothing to say to
// this recipient over WhatsApp, and the send becomes a silent no-op.
type Notification interface {
	Channels(notifiable any) []string
	ToWhatsApp(notifiable any) *message.Message
}

// InstanceResolver selects a gateway connection by name. An empty name
// requests the process-wide default instance.
type InstanceResolver interface {
	Instance(name string) (dispatch.Transport, error)
}

// Channel is the glue between a generic notification event and the
// WhatsApp dispatch pipeline. It holds no per-send state; every Send is
// a one-shot transaction.
type Channel struct {
	Instances InstanceResolver
	Resolver  *PhoneResolver
	Router    *dispatch.Router
	Logger    zerolog.Logger
}

// Send renders the notification for the notifiable, resolves the phone
// number and dispatches. Rendering nothing is a deliberate skip, not an
// error.
func (c *Channel) Send(ctx context.Context, notifiable any, n Notification) (dispatch.Result, error) {
	msg := n.ToWhatsApp(notifiable)
	if msg == nil {
		c.Logger.Debug().Msg("notification rendered nothing for recipient, skipping")
		return dispatch.Result{}, nil
	}

	ctx, span := otel.Tracer("channel").Start(ctx, "send")
	defer span.End()

	phone, err := c.Resolver.Resolve(notifiable)
	if err != nil {
		span.RecordError(err)
		c.Logger.Warn().Err(err).Msg("recipient has no routable whatsapp number")
		return dispatch.Result{}, err
	}
	phone = c.Resolver.Normalize(phone)
	span.SetAttributes(attribute.String("message.kind", string(msg.Kind)))

	transport, err := c.Instances.Instance(msg.Instance)
	if err != nil {
		span.RecordError(err)
		return dispatch.Result{}, fmt.Errorf("select gateway instance: %w", err)
	}

	return c.Router.Dispatch(ctx, transport, phone, msg)
}
