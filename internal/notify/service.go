// Package notify offers one-call send operations for hosts that have a
// phone number in hand and no notifiable domain object to route through.
// Each operation wraps the number in a minimal recipient and the content
// in a small concrete notification type.
package notify

import (
	"context"

	"github.com/detygon/evolution-notify/internal/channel"
	"github.com/detygon/evolution-notify/internal/dispatch"
	"github.com/detygon/evolution-notify/internal/message"
)

type Service struct {
	Channel *channel.Channel
}

// BulkResult reports the outcome of one recipient within a bulk send.
type BulkResult struct {
	To     string
	Result dispatch.Result
	Err    error
}

func (s *Service) SendText(ctx context.Context, phone, text, instance string) (dispatch.Result, error) {
	return s.Channel.Send(ctx, phoneRecipient(phone), TextNotification{Text: text, Instance: instance})
}

// SendBulkText fans a text out to many numbers as independent sends.
// One failing recipient never blocks the rest; every outcome is reported
// against its number.
func (s *Service) SendBulkText(ctx context.Context, phones []string, text, instance string) []BulkResult {
	results := make([]BulkResult, 0, len(phones))
	n := TextNotification{Text: text, Instance: instance}
	for _, phone := range phones {
		res, err := s.Channel.Send(ctx, phoneRecipient(phone), n)
		results = append(results, BulkResult{To: phone, Result: res, Err: err})
	}
	return results
}

func (s *Service) SendImage(ctx context.Context, phone, url, caption, instance string) (dispatch.Result, error) {
	return s.Channel.Send(ctx, phoneRecipient(phone), ImageNotification{URL: url, Caption: caption, Instance: instance})
}

func (s *Service) SendLocation(ctx context.Context, phone string, latitude, longitude float64, name, address, instance string) (dispatch.Result, error) {
	return s.Channel.Send(ctx, phoneRecipient(phone), LocationNotification{
		Latitude:  latitude,
		Longitude: longitude,
		Name:      name,
		Address:   address,
		Instance:  instance,
	})
}

// phoneRecipient makes a bare number routable through the channel's
// attribute lookup.
type phoneRecipient string

func (p phoneRecipient) NotificationAttributes() map[string]string {
	return map[string]string{"whatsapp_number": string(p)}
}

// TextNotification delivers a plain text message.
type TextNotification struct {
	Text     string
	Instance string
}

func (n TextNotification) Channels(any) []string { return []string{channel.Name} }

func (n TextNotification) ToWhatsApp(any) *message.Message {
	return message.NewText(n.Text).WithInstance(n.Instance)
}

// ImageNotification delivers an image by URL with an optional caption.
type ImageNotification struct {
	URL      string
	Caption  string
	Instance string
}

func (n ImageNotification) Channels(any) []string { return []string{channel.Name} }

func (n ImageNotification) ToWhatsApp(any) *message.Message {
	msg := message.NewImage(n.URL)
	if n.Caption != "" {
		msg.WithCaption(n.Caption)
	}
	return msg.WithInstance(n.Instance)
}

// LocationNotification delivers a pin with an optional place name and
// address.
type LocationNotification struct {
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
	Instance  string
}

func (n LocationNotification) Channels(any) []string { return []string{channel.Name} }

func (n LocationNotification) ToWhatsApp(any) *message.Message {
	msg := message.NewLocation(n.Latitude, n.Longitude)
	if n.Name != "" || n.Address != "" {
		msg.WithPlace(n.Name, n.Address)
	}
	return msg.WithInstance(n.Instance)
}
