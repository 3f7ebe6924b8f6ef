package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedRouter(t *testing.T) (http.Handler, *tracetest.SpanRecorder, *Observability) {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	obs := NewObservability(ObservabilityConfig{TracerProvider: tp}, nil, nil)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(obs.Middleware)
	r.Get("/v1/vaults/{account}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r, spans, obs
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMiddlewareTracesRoutePattern(t *testing.T) {
	handler, spans, obs := newTracedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/vaults/vlt1abc", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	span := ended[0]
	require.Equal(t, "GET /v1/vaults/{account}", span.Name())
	route, ok := spanAttr(span.Attributes(), "http.route")
	require.True(t, ok)
	require.Equal(t, "/v1/vaults/{account}", route.AsString())
	id, ok := spanAttr(span.Attributes(), "http.request_id")
	require.True(t, ok)
	require.Equal(t, "req-42", id.AsString())
	require.NotEqual(t, codes.Error, span.Status().Code)

	require.Equal(t, 1.0, testutil.ToFloat64(obs.Requests().WithLabelValues("/v1/vaults/{account}", http.MethodGet, "200")))
}

func TestMiddlewareMarksServerErrors(t *testing.T) {
	handler, spans, _ := newTracedRouter(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestRequestIDAssignedWhenMissing(t *testing.T) {
	handler, spans, _ := newTracedRouter(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/vaults/x", nil))
	assigned := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(assigned)
	require.NoError(t, err)

	id, ok := spanAttr(spans.Ended()[0].Attributes(), "http.request_id")
	require.True(t, ok)
	require.Equal(t, assigned, id.AsString())
}

func TestRequestIDRejectsOversizedHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	long := make([]byte, maxRequestIDLength+1)
	for i := range long {
		long[i] = 'a'
	}
	req.Header.Set(RequestIDHeader, string(long))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}
