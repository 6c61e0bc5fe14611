// internal/middleware/logging_test.go

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "/rooms", entry.Data["path"])
	assert.Equal(t, http.MethodGet, entry.Data["method"])
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
}

func TestLogMiddlewareDefaultsToOK(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])
}

func TestStatusRecorderHijackUnsupported(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rec.Hijack()
	assert.Error(t, err)
}

func TestLogWebSocketDisconnectIncludesError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	LogWebSocketDisconnect(logger, "1.2.3.4:5", "/ws", errors.New("boom"))
	require.NotNil(t, hook.LastEntry())
	assert.EqualError(t, hook.LastEntry().Data["error"].(error), "boom")

	LogWebSocketConnect(logger, "1.2.3.4:5", "/ws")
	assert.Equal(t, "WebSocket connected", hook.LastEntry().Message)
}
