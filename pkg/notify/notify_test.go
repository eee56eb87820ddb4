package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	return logrus.NewEntry(logrus.New())
}

func TestSendDeliversPayload(t *testing.T) {
	var received Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, testLog())
	ok := n.Send(context.Background(), Payload{
		RunID:     "run-1",
		Processed: 10,
		Succeeded: 8,
		Failed:    2,
	})

	assert.True(t, ok)
	assert.Equal(t, "run-1", received.RunID)
	assert.Equal(t, 10, received.Processed)
	assert.Equal(t, 2, received.Failed)
}

func TestSendSwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(srv.URL, testLog())
	assert.False(t, n.Send(context.Background(), Payload{RunID: "run-1"}))
}

func TestSendDisabledWithoutURL(t *testing.T) {
	n := New("", testLog())
	assert.False(t, n.Send(context.Background(), Payload{RunID: "run-1"}))
}

func TestSendUnreachableHost(t *testing.T) {
	n := New("http://127.0.0.1:1/webhook", testLog())
	assert.False(t, n.Send(context.Background(), Payload{RunID: "run-1"}))
}
