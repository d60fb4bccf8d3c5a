package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detygon/evolution-notify/internal/channel"
	"github.com/detygon/evolution-notify/internal/dispatch"
)

type fakeTransport struct {
	dispatch.Transport
	sentTo  []string
	failFor map[string]error
}

func (f *fakeTransport) SendText(_ context.Context, to, _ string, _ bool, _ int, _ bool) (dispatch.Result, error) {
	if err := f.failFor[to]; err != nil {
		return dispatch.Result{}, err
	}
	f.sentTo = append(f.sentTo, to)
	return dispatch.Result{MessageID: "wamid-" + to, Status: "PENDING"}, nil
}

type fakeInstances struct {
	transport dispatch.Transport
}

func (f fakeInstances) Instance(string) (dispatch.Transport, error) { return f.transport, nil }

func newTestHandler(transport dispatch.Transport) *Handler {
	ch := &channel.Channel{
		Instances: fakeInstances{transport: transport},
		Resolver:  &channel.PhoneResolver{Policy: channel.DefaultNumberPolicy()},
		Router:    &dispatch.Router{},
	}
	return NewHandler(ch, zerolog.Nop())
}

func postSend(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/send", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func TestSendAcceptsAllRecipients(t *testing.T) {
	transport := &fakeTransport{}
	h := newTestHandler(transport)

	rec := postSend(t, h, `{"to":["15551110001","15551110002"],"message":{"type":"text","text":"hi"}}`)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp SendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "wamid-15551110001", resp.Results[0].MessageID)
	assert.Equal(t, []string{"15551110001", "15551110002"}, transport.sentTo)
}

func TestSendReportsPartialFailure(t *testing.T) {
	transport := &fakeTransport{failFor: map[string]error{"15551110002": errors.New("gateway rejected")}}
	h := newTestHandler(transport)

	rec := postSend(t, h, `{"to":["15551110001","15551110002","15551110003"],"message":{"type":"text","text":"hi"}}`)

	require.Equal(t, http.StatusMultiStatus, rec.Code)

	var resp SendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "failed", resp.Results[1].Status)
	assert.Contains(t, resp.Results[1].Error, "gateway rejected")
	// the failing recipient does not block the others
	assert.Equal(t, []string{"15551110001", "15551110003"}, transport.sentTo)
}

func TestSendRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"to":`},
		{"no recipients", `{"to":[],"message":{"type":"text","text":"hi"}}`},
		{"no message", `{"to":["15551110001"]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(&fakeTransport{})
			rec := postSend(t, h, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSendValidationFailureReturnsBadGateway(t *testing.T) {
	transport := &fakeTransport{}
	h := newTestHandler(transport)

	// text kind with no text fails validation for every recipient
	rec := postSend(t, h, `{"to":["15551110001"],"message":{"type":"text"}}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, transport.sentTo)
}

func TestSendRequestInstanceAppliesWhenMessageUntagged(t *testing.T) {
	transport := &fakeTransport{}
	names := []string{}
	ch := &channel.Channel{
		Instances: recordingInstances{transport: transport, names: &names},
		Resolver:  &channel.PhoneResolver{Policy: channel.DefaultNumberPolicy()},
		Router:    &dispatch.Router{},
	}
	h := NewHandler(ch, zerolog.Nop())

	rec := postSend(t, h, `{"to":["15551110001"],"instance":"sales","message":{"type":"text","text":"hi"}}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"sales"}, names)
}

type recordingInstances struct {
	transport dispatch.Transport
	names     *[]string
}

func (r recordingInstances) Instance(name string) (dispatch.Transport, error) {
	*r.names = append(*r.names, name)
	return r.transport, nil
}
