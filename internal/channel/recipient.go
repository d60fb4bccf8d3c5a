package channel

// Recipient is a ready-made attribute view for domain types that just
// want to embed their phone fields instead of implementing
// AttributeCarrier by hand. Empty fields are simply absent from the view.
type Recipient struct {
	WhatsAppNumber string
	PhoneNumber    string
	Phone          string
	Mobile         string
	Cellphone      string
}

func (r Recipient) NotificationAttributes() map[string]string {
	attrs := make(map[string]string, 5)
	if r.WhatsAppNumber != "" {
		attrs["whatsapp_number"] = r.WhatsAppNumber
	}
	if r.PhoneNumber != "" {
		attrs["phone_number"] = r.PhoneNumber
	}
	if r.Phone != "" {
		attrs["phone"] = r.Phone
	}
	if r.Mobile != "" {
		attrs["mobile"] = r.Mobile
	}
	if r.Cellphone != "" {
		attrs["cellphone"] = r.Cellphone
	}
	return attrs
}
