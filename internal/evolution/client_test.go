package evolution

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detygon/evolution-notify/internal/message"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "secret-key", 2*time.Second, zerolog.Nop())
	client.MaxRetryElapsed = 200 * time.Millisecond
	return client, srv
}

func TestSendTextRequestShape(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"key":{"id":"wamid-42"},"status":"PENDING"}`))
	})

	manager := &Manager{Client: client, Default: "main"}
	transport, err := manager.Instance("")
	require.NoError(t, err)

	res, err := transport.SendText(context.Background(), "15551234567", "hello", false, 350, true)

	require.NoError(t, err)
	assert.Equal(t, "/message/sendText/main", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "15551234567", gotBody["number"])
	assert.Equal(t, "hello", gotBody["text"])
	assert.Equal(t, float64(350), gotBody["delay"])
	assert.Equal(t, true, gotBody["linkPreview"])
	assert.Equal(t, "wamid-42", res.MessageID)
	assert.Equal(t, "PENDING", res.Status)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, `{"error":"instance not connected"}`, http.StatusBadRequest)
	})

	manager := &Manager{Client: client, Default: "main"}
	transport, err := manager.Instance("")
	require.NoError(t, err)

	_, err = transport.SendText(context.Background(), "15551234567", "hello", false, 0, true)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), attempts.Load(), "4xx must not be retried")
}

func TestServerErrorIsRetried(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"key":{"id":"wamid-1"},"status":"PENDING"}`))
	})

	manager := &Manager{Client: client, Default: "main"}
	transport, err := manager.Instance("")
	require.NoError(t, err)

	res, err := transport.SendText(context.Background(), "15551234567", "hello", false, 0, true)

	require.NoError(t, err)
	assert.Equal(t, "wamid-1", res.MessageID)
	assert.GreaterOrEqual(t, attempts.Load(), int32(2))
}

func TestSendListWiresSectionsAndRowIDs(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"key":{"id":"wamid-9"}}`))
	})

	manager := &Manager{Client: client}
	transport, err := manager.Instance("support")
	require.NoError(t, err)

	sections := []message.ListSection{
		{Title: "Starters", Rows: []message.ListRow{
			{ID: "s1", Title: "Soup", Description: "warm"},
			{ID: "s2", Title: "Salad"},
		}},
		{Title: "Mains", Rows: []message.ListRow{
			{ID: "m1", Title: "Pasta"},
		}},
	}

	res, err := transport.SendList(context.Background(), "15551234567", "Menu", "Choose", "Open", "footer", sections)

	require.NoError(t, err)
	assert.Equal(t, "/message/sendList/support", gotPath)
	assert.Equal(t, "Choose", gotBody["description"])
	assert.Equal(t, "footer", gotBody["footerText"])

	wired := gotBody["sections"].([]any)
	require.Len(t, wired, 2)
	firstRows := wired[0].(map[string]any)["rows"].([]any)
	assert.Equal(t, "s1", firstRows[0].(map[string]any)["rowId"])
	assert.Equal(t, "sent", res.Status, "missing gateway status defaults to sent")
}

func TestManagerInstanceSelection(t *testing.T) {
	manager := &Manager{Client: &Client{}, Default: "main"}

	transport, err := manager.Instance("")
	require.NoError(t, err)
	assert.Equal(t, "main", transport.(*Instance).Name())

	transport, err = manager.Instance("sales")
	require.NoError(t, err)
	assert.Equal(t, "sales", transport.(*Instance).Name())

	empty := &Manager{Client: &Client{}}
	_, err = empty.Instance("")
	assert.True(t, errors.Is(err, ErrNoInstance))
}
