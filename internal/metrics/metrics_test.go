package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tgchannel/internal/channel"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserveDispatch(t *testing.T) {
	m := New()
	m.ObserveDispatch("sendMessage", channel.OutcomeSent, 20*time.Millisecond)
	m.ObserveDispatch("sendMessage", channel.OutcomeSent, 30*time.Millisecond)
	m.ObserveDispatch("", channel.OutcomeSkipped, 0)
	m.FailureStored()

	body := scrape(t, m.Handler())
	assert.Contains(t, body, `tgchannel_dispatches_total{method="sendMessage",outcome="sent"} 2`)
	assert.Contains(t, body, `tgchannel_dispatches_total{method="unknown",outcome="skipped"} 1`)
	assert.Contains(t, body, `tgchannel_dispatch_duration_seconds_count{method="sendMessage",outcome="sent"} 2`)
	assert.Contains(t, body, "tgchannel_failures_stored_total 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/7", nil))

	body := scrape(t, m.Handler())
	assert.Contains(t, body, `tgchannel_http_requests_total{method="GET",path="/items/{id}",status="418"} 1`)
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.FailureStored()
	assert.Contains(t, scrape(t, a.Handler()), "tgchannel_failures_stored_total 1")
	assert.Contains(t, scrape(t, b.Handler()), "tgchannel_failures_stored_total 0")
}
