package channel

import (
	"errors"
	"strings"
)

// ErrNoRecipient is returned when a notifiable exposes no
// WhatsApp-routable phone number through any known attribute or method.
var ErrNoRecipient = errors.New("no whatsapp phone number found for recipient")

// phoneAttributes is the lookup order over a recipient's attribute view.
// The first non-empty value wins.
var phoneAttributes = []string{
	"whatsapp_number",
	"phone_number",
	"phone",
	"mobile",
	"cellphone",
}

// AttributeCarrier exposes a recipient's fields as a generic key-value
// view, the way loosely-typed host frameworks hand records around.
type AttributeCarrier interface {
	NotificationAttributes() map[string]string
}

// WhatsAppRoutable is the dedicated routing capability a recipient type
// can implement instead of (or in addition to) the attribute view.
type WhatsAppRoutable interface {
	WhatsAppNumber() string
}

// NumberPolicy is the country-code completion rule applied when a bare
// local number comes in. The defaults match NANP dialing: a ten-digit
// number gets a leading "1".
type NumberPolicy struct {
	CountryPrefix string
	LocalDigits   int
}

func DefaultNumberPolicy() NumberPolicy {
	return NumberPolicy{CountryPrefix: "1", LocalDigits: 10}
}

// PhoneResolver extracts and normalizes a routable phone number from an
// arbitrary recipient object.
type PhoneResolver struct {
	Policy NumberPolicy
}

// Resolve walks the known attribute names in priority order, then falls
// back to the dedicated routing method. The returned value is reduced to
// digits but carries no country-code completion yet.
func (r *PhoneResolver) Resolve(notifiable any) (string, error) {
	if carrier, ok := notifiable.(AttributeCarrier); ok {
		attrs := carrier.NotificationAttributes()
		for _, name := range phoneAttributes {
			if v := attrs[name]; v != "" {
				return digitsOnly(v), nil
			}
		}
	}
	if routable, ok := notifiable.(WhatsAppRoutable); ok {
		if v := routable.WhatsAppNumber(); v != "" {
			return digitsOnly(v), nil
		}
	}
	return "", ErrNoRecipient
}

// Normalize strips formatting and completes a bare local number with the
// policy's country prefix. Input that is already longer or shorter than
// the local length passes through unchanged, so the operation is
// idempotent.
func (r *PhoneResolver) Normalize(raw string) string {
	policy := r.Policy
	if policy.LocalDigits == 0 {
		policy = DefaultNumberPolicy()
	}
	digits := digitsOnly(raw)
	if len(digits) == policy.LocalDigits {
		return policy.CountryPrefix + digits
	}
	return digits
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
