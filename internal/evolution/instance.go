package evolution

import (
	"context"
	"errors"

	"github.com/detygon/evolution-notify/internal/dispatch"
	"github.com/detygon/evolution-notify/internal/message"
)

// ErrNoInstance is returned when a send names no gateway instance and no
// process-wide default is configured either.
var ErrNoInstance = errors.New("no gateway instance named and no default configured")

// Manager resolves named gateway instances against one Client. The
// default is fixed at composition time and read-only afterwards.
type Manager struct {
	Client  *Client
	Default string
}

func (m *Manager) Instance(name string) (dispatch.Transport, error) {
	if name == "" {
		name = m.Default
	}
	if name == "" {
		return nil, ErrNoInstance
	}
	return &Instance{client: m.Client, name: name}, nil
}

// Instance is a sender bound to one named gateway connection. It
// implements dispatch.Transport with one API endpoint per message kind.
type Instance struct {
	client *Client
	name   string
}

func (i *Instance) Name() string { return i.name }

type textRequest struct {
	Number      string `json:"number"`
	Text        string `json:"text"`
	Delay       int    `json:"delay,omitempty"`
	LinkPreview bool   `json:"linkPreview"`
	Quoted      bool   `json:"quoted,omitempty"`
}

func (i *Instance) SendText(ctx context.Context, to, text string, quoted bool, delayMs int, linkPreview bool) (dispatch.Result, error) {
	return i.post(ctx, "/message/sendText/", textRequest{
		Number:      to,
		Text:        text,
		Delay:       delayMs,
		LinkPreview: linkPreview,
		Quoted:      quoted,
	})
}

type mediaRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	Media     string `json:"media"`
	Caption   string `json:"caption,omitempty"`
	FileName  string `json:"fileName,omitempty"`
}

func (i *Instance) SendImage(ctx context.Context, to, url, caption string) (dispatch.Result, error) {
	return i.post(ctx, "/message/sendMedia/", mediaRequest{
		Number:    to,
		MediaType: "image",
		Media:     url,
		Caption:   caption,
	})
}

func (i *Instance) SendDocument(ctx context.Context, to, url, filename, caption string) (dispatch.Result, error) {
	return i.post(ctx, "/message/sendMedia/", mediaRequest{
		Number:    to,
		MediaType: "document",
		Media:     url,
		Caption:   caption,
		FileName:  filename,
	})
}

type locationRequest struct {
	Number    string  `json:"number"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

func (i *Instance) SendLocation(ctx context.Context, to string, latitude, longitude float64, name, address string) (dispatch.Result, error) {
	return i.post(ctx, "/message/sendLocation/", locationRequest{
		Number:    to,
		Latitude:  latitude,
		Longitude: longitude,
		Name:      name,
		Address:   address,
	})
}

type contactEntry struct {
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

type contactRequest struct {
	Number  string         `json:"number"`
	Contact []contactEntry `json:"contact"`
}

func (i *Instance) SendContact(ctx context.Context, to, name, number string) (dispatch.Result, error) {
	return i.post(ctx, "/message/sendContact/", contactRequest{
		Number:  to,
		Contact: []contactEntry{{FullName: name, PhoneNumber: number}},
	})
}

type wireButton struct {
	Type        string `json:"type"`
	DisplayText string `json:"displayText"`
	ID          string `json:"id,omitempty"`
	URL         string `json:"url,omitempty"`
}

type buttonsRequest struct {
	Number      string       `json:"number"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Footer      string       `json:"footer,omitempty"`
	Buttons     []wireButton `json:"buttons"`
}

func (i *Instance) SendButtons(ctx context.Context, to, title, body, footer string, buttons []message.Button) (dispatch.Result, error) {
	wired := make([]wireButton, 0, len(buttons))
	for _, b := range buttons {
		wired = append(wired, wireButton{
			Type:        b.Type,
			DisplayText: b.Text,
			ID:          b.Data["id"],
			URL:         b.Data["url"],
		})
	}
	return i.post(ctx, "/message/sendButtons/", buttonsRequest{
		Number:      to,
		Title:       title,
		Description: body,
		Footer:      footer,
		Buttons:     wired,
	})
}

type wireRow struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	RowID       string `json:"rowId"`
}

type wireSection struct {
	Title string    `json:"title"`
	Rows  []wireRow `json:"rows"`
}

type listRequest struct {
	Number      string        `json:"number"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	ButtonText  string        `json:"buttonText"`
	FooterText  string        `json:"footerText,omitempty"`
	Sections    []wireSection `json:"sections"`
}

func (i *Instance) SendList(ctx context.Context, to, title, body, buttonText, footer string, sections []message.ListSection) (dispatch.Result, error) {
	wired := make([]wireSection, 0, len(sections))
	for _, s := range sections {
		rows := make([]wireRow, 0, len(s.Rows))
		for _, r := range s.Rows {
			rows = append(rows, wireRow{Title: r.Title, Description: r.Description, RowID: r.ID})
		}
		wired = append(wired, wireSection{Title: s.Title, Rows: rows})
	}
	return i.post(ctx, "/message/sendList/", listRequest{
		Number:      to,
		Title:       title,
		Description: body,
		ButtonText:  buttonText,
		FooterText:  footer,
		Sections:    wired,
	})
}

type pollRequest struct {
	Number          string   `json:"number"`
	Name            string   `json:"name"`
	SelectableCount int      `json:"selectableCount"`
	Values          []string `json:"values"`
}

func (i *Instance) SendPoll(ctx context.Context, to, question string, selectableCount int, options []string) (dispatch.Result, error) {
	return i.post(ctx, "/message/sendPoll/", pollRequest{
		Number:          to,
		Name:            question,
		SelectableCount: selectableCount,
		Values:          options,
	})
}

type templateRequest struct {
	Number     string              `json:"number"`
	Name       string              `json:"name"`
	Language   string              `json:"language"`
	Components []message.Component `json:"components,omitempty"`
}

func (i *Instance) SendTemplate(ctx context.Context, to, templateName, language string, components []message.Component) (dispatch.Result, error) {
	return i.post(ctx, "/message/sendTemplate/", templateRequest{
		Number:     to,
		Name:       templateName,
		Language:   language,
		Components: components,
	})
}

func (i *Instance) post(ctx context.Context, basePath string, payload any) (dispatch.Result, error) {
	resp, err := i.client.post(ctx, basePath+i.name, payload)
	if err != nil {
		return dispatch.Result{}, err
	}
	status := resp.Status
	if status == "" {
		status = "sent"
	}
	return dispatch.Result{MessageID: resp.Key.ID, Status: status}, nil
}
