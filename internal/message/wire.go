package message

import (
	"encoding/json"
	"fmt"
)

// wireDescription is the loose JSON shape accepted over HTTP and Kafka.
// Pointer fields let an omitted optional keep its documented default.
type wireDescription struct {
	Type     string `json:"type"`
	Instance string `json:"instance"`

	Text        string `json:"text"`
	Quoted      bool   `json:"quoted"`
	Delay       int    `json:"delay"`
	LinkPreview *bool  `json:"linkPreview"`

	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`

	ContactName   string `json:"contact_name"`
	ContactNumber string `json:"contact_number"`

	Title      string        `json:"title"`
	Body       string        `json:"body"`
	Footer     string        `json:"footer"`
	ButtonText string        `json:"buttonText"`
	Buttons    []Button      `json:"buttons"`
	Sections   []ListSection `json:"sections"`

	Question        string   `json:"question"`
	Options         []string `json:"options"`
	SelectableCount *int     `json:"selectableCount"`

	TemplateName string      `json:"templateName"`
	Language     string      `json:"language"`
	Components   []Component `json:"components"`
}

// Decode parses a wire-format message description. Kind defaults to text
// when the type key is absent; kind validation and required-field checks
// stay with the dispatch layer.
func Decode(raw []byte) (*Message, error) {
	var w wireDescription
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode message description: %w", err)
	}

	m := &Message{
		Kind:     Kind(w.Type),
		Instance: w.Instance,

		Text:    w.Text,
		Quoted:  w.Quoted,
		DelayMs: w.Delay,

		URL:      w.URL,
		Caption:  w.Caption,
		Filename: w.Filename,

		Latitude:  w.Latitude,
		Longitude: w.Longitude,
		Name:      w.Name,
		Address:   w.Address,

		ContactName:   w.ContactName,
		ContactNumber: w.ContactNumber,

		Title:      w.Title,
		Body:       w.Body,
		Footer:     w.Footer,
		ButtonText: w.ButtonText,
		Buttons:    w.Buttons,
		Sections:   w.Sections,

		Question:    w.Question,
		PollOptions: w.Options,

		TemplateName: w.TemplateName,
		Language:     w.Language,
		Components:   w.Components,
	}

	if m.Kind == "" {
		m.Kind = KindText
	}

	m.LinkPreview = w.LinkPreview == nil || *w.LinkPreview
	if w.SelectableCount != nil {
		m.SelectableCount = *w.SelectableCount
	} else {
		m.SelectableCount = DefaultSelectableCount
	}
	if m.Kind == KindDocument && m.Filename == "" {
		m.Filename = DefaultFilename
	}
	if m.Kind == KindTemplate && m.Language == "" {
		m.Language = DefaultLanguage
	}

	return m, nil
}
