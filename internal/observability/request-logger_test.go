package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func requestWithEntry(entry *structuredLoggerEntry) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "http://localhost/", nil)
	return r.WithContext(context.WithValue(r.Context(), chimiddleware.LogEntryCtxKey, entry))
}

func TestLogEntrySetField(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	entry := &structuredLoggerEntry{Logger: logrus.NewEntry(logger)}
	r := requestWithEntry(entry)

	LogEntrySetField(r, "tenant_id", "tenant-1")
	GetLogEntry(r).Info("request tagged")

	require.NotNil(t, hook.LastEntry())
	require.Equal(t, "tenant-1", hook.LastEntry().Data["tenant_id"])
}

func TestGetLogEntryFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://localhost/", nil)

	require.NotNil(t, GetLogEntry(r))
	require.Nil(t, LogEntrySetField(r, "tenant_id", "tenant-1"))
}
