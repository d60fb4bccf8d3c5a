package message

import (
	"fmt"
	"strings"
)

// Kind discriminates the shape a Message carries. The zero value is
// treated as KindText by the dispatch layer.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindLocation Kind = "location"
	KindContact  Kind = "contact"
	KindButtons  Kind = "buttons"
	KindList     Kind = "list"
	KindPoll     Kind = "poll"
	KindTemplate Kind = "template"
)

const (
	DefaultFilename        = "document"
	DefaultLanguage        = "en_US"
	DefaultSelectableCount = 1
)

type Button struct {
	Type string            `json:"type"`
	Text string            `json:"text"`
	Data map[string]string `json:"data,omitempty"`
}

type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

type Component struct {
	Type       string              `json:"type"`
	Parameters []map[string]string `json:"parameters,omitempty"`
}

// Message is a WhatsApp message description. Only the fields belonging to
// its Kind are meaningful; the rest stay at their zero value. A Message is
// built once, optionally extended through the Add* methods, handed to the
// dispatch layer exactly once and then discarded.
type Message struct {
	Kind     Kind
	Instance string

	Text        string
	Quoted      bool
	DelayMs     int
	LinkPreview bool

	URL      string
	Caption  string
	Filename string

	Latitude  float64
	Longitude float64
	Name      string
	Address   string

	ContactName   string
	ContactNumber string

	Title      string
	Body       string
	Footer     string
	ButtonText string
	Buttons    []Button
	Sections   []ListSection

	Question        string
	SelectableCount int
	PollOptions     []string

	TemplateName string
	Language     string
	Components   []Component

	shapeErr error
}

// NewText builds a text message. Link previews are on unless disabled
// through WithOptions.
func NewText(text string) *Message {
	return &Message{Kind: KindText, Text: text, LinkPreview: true}
}

func NewImage(url string) *Message {
	return &Message{Kind: KindImage, URL: url}
}

func NewDocument(url string) *Message {
	return &Message{Kind: KindDocument, URL: url, Filename: DefaultFilename}
}

func NewLocation(latitude, longitude float64) *Message {
	return &Message{Kind: KindLocation, Latitude: latitude, Longitude: longitude}
}

func NewContact(name, number string) *Message {
	return &Message{Kind: KindContact, ContactName: name, ContactNumber: number}
}

func NewButtons(title, body string, buttons ...Button) *Message {
	return &Message{Kind: KindButtons, Title: title, Body: body, Buttons: buttons}
}

func NewList(title, body, buttonText string, sections ...ListSection) *Message {
	return &Message{Kind: KindList, Title: title, Body: body, ButtonText: buttonText, Sections: sections}
}

func NewPoll(question string, options ...string) *Message {
	return &Message{Kind: KindPoll, Question: question, PollOptions: options, SelectableCount: DefaultSelectableCount}
}

func NewTemplate(templateName string) *Message {
	return &Message{Kind: KindTemplate, TemplateName: templateName, Language: DefaultLanguage}
}

// WithInstance tags the message with a named gateway instance. When the
// tag is absent the dispatch layer falls back to the process default.
func (m *Message) WithInstance(instance string) *Message {
	m.Instance = instance
	return m
}

// WithOptions sets the text delivery options in one go, mirroring the
// option set the gateway accepts for sendText.
func (m *Message) WithOptions(quoted bool, delayMs int, linkPreview bool) *Message {
	m.requireKind(KindText, "WithOptions")
	m.Quoted = quoted
	m.DelayMs = delayMs
	m.LinkPreview = linkPreview
	return m
}

func (m *Message) WithCaption(caption string) *Message {
	if m.Kind != KindImage && m.Kind != KindDocument {
		m.shape("WithCaption", "image or document")
	}
	m.Caption = caption
	return m
}

func (m *Message) WithFilename(filename string) *Message {
	m.requireKind(KindDocument, "WithFilename")
	m.Filename = filename
	return m
}

func (m *Message) WithPlace(name, address string) *Message {
	m.requireKind(KindLocation, "WithPlace")
	m.Name = name
	m.Address = address
	return m
}

func (m *Message) WithFooter(footer string) *Message {
	if m.Kind != KindButtons && m.Kind != KindList {
		m.shape("WithFooter", "buttons or list")
	}
	m.Footer = footer
	return m
}

func (m *Message) WithSelectableCount(count int) *Message {
	m.requireKind(KindPoll, "WithSelectableCount")
	m.SelectableCount = count
	return m
}

func (m *Message) WithLanguage(language string) *Message {
	m.requireKind(KindTemplate, "WithLanguage")
	m.Language = language
	return m
}

// AddReplyButton appends a reply button. When data carries no id one is
// derived from the button text ("View cart" becomes "btn-view-cart").
func (m *Message) AddReplyButton(text string, data map[string]string) *Message {
	m.requireKind(KindButtons, "AddReplyButton")
	merged := map[string]string{"id": SlugID(text)}
	for k, v := range data {
		merged[k] = v
	}
	m.Buttons = append(m.Buttons, Button{Type: "reply", Text: text, Data: merged})
	return m
}

func (m *Message) AddURLButton(text, url string) *Message {
	m.requireKind(KindButtons, "AddURLButton")
	m.Buttons = append(m.Buttons, Button{Type: "url", Text: text, Data: map[string]string{"url": url}})
	return m
}

func (m *Message) AddSection(title string, rows ...ListRow) *Message {
	m.requireKind(KindList, "AddSection")
	m.Sections = append(m.Sections, ListSection{Title: title, Rows: rows})
	return m
}

func (m *Message) AddComponent(componentType string, parameters ...map[string]string) *Message {
	m.requireKind(KindTemplate, "AddComponent")
	m.Components = append(m.Components, Component{Type: componentType, Parameters: parameters})
	return m
}

// Err reports whether a fluent call was made against the wrong message
// kind. The dispatch layer refuses such a message before any transport
// call is attempted.
func (m *Message) Err() error {
	return m.shapeErr
}

func (m *Message) requireKind(kind Kind, op string) {
	if m.Kind != kind {
		m.shape(op, string(kind))
	}
}

func (m *Message) shape(op, want string) {
	if m.shapeErr == nil {
		m.shapeErr = fmt.Errorf("%s is only valid on a %s message, not %q", op, want, m.Kind)
	}
}

// SlugID derives the default reply-button id from the button text.
func SlugID(text string) string {
	return "btn-" + strings.ReplaceAll(strings.ToLower(text), " ", "-")
}

// ToPayload flattens the message into the key set the wire format uses.
// Only keys that belong to the message kind are present.
func (m *Message) ToPayload() map[string]any {
	p := map[string]any{"type": string(m.Kind)}
	if m.Instance != "" {
		p["instance"] = m.Instance
	}

	switch m.Kind {
	case KindText:
		p["text"] = m.Text
		p["quoted"] = m.Quoted
		p["delay"] = m.DelayMs
		p["linkPreview"] = m.LinkPreview
	case KindImage:
		p["url"] = m.URL
		if m.Caption != "" {
			p["caption"] = m.Caption
		}
	case KindDocument:
		p["url"] = m.URL
		p["filename"] = m.Filename
		if m.Caption != "" {
			p["caption"] = m.Caption
		}
	case KindLocation:
		p["latitude"] = m.Latitude
		p["longitude"] = m.Longitude
		if m.Name != "" {
			p["name"] = m.Name
		}
		if m.Address != "" {
			p["address"] = m.Address
		}
	case KindContact:
		p["contact_name"] = m.ContactName
		p["contact_number"] = m.ContactNumber
	case KindButtons:
		p["title"] = m.Title
		p["body"] = m.Body
		p["footer"] = m.Footer
		p["buttons"] = m.Buttons
	case KindList:
		p["title"] = m.Title
		p["body"] = m.Body
		p["buttonText"] = m.ButtonText
		p["footer"] = m.Footer
		p["sections"] = m.Sections
	case KindPoll:
		p["question"] = m.Question
		p["options"] = m.PollOptions
		p["selectableCount"] = m.SelectableCount
	case KindTemplate:
		p["templateName"] = m.TemplateName
		p["language"] = m.Language
		p["components"] = m.Components
	}
	return p
}
