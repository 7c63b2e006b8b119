package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withSpanRecorder installs a recording tracer provider for the duration
// of the test and restores the previous global afterwards.
func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
	})
	return recorder
}

func TestTracingDisabledPassesThrough(t *testing.T) {
	recorder := withSpanRecorder(t)
	router := gin.New()
	router.Use(Tracing("parcelscan-backend", false))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}

func TestTracingRecordsServerSpan(t *testing.T) {
	recorder := withSpanRecorder(t)
	router := gin.New()
	router.Use(Tracing("parcelscan-backend", true))
	router.GET("/status", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
}

func TestSpanEnricher(t *testing.T) {
	t.Run("tags the span with the request ID", func(t *testing.T) {
		recorder := withSpanRecorder(t)
		router := gin.New()
		router.Use(RequestID(), Tracing("parcelscan-backend", true), SpanEnricher())
		router.GET("/", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-42")
		router.ServeHTTP(httptest.NewRecorder(), req)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		found := false
		for _, attr := range spans[0].Attributes() {
			if string(attr.Key) == "request_id" {
				found = true
				assert.Equal(t, "req-42", attr.Value.AsString())
			}
		}
		assert.True(t, found, "request_id attribute missing")
	})

	t.Run("marks error responses", func(t *testing.T) {
		recorder := withSpanRecorder(t)
		router := gin.New()
		router.Use(RequestID(), Tracing("parcelscan-backend", true), SpanEnricher())
		router.GET("/conflict", func(c *gin.Context) {
			c.Status(http.StatusConflict)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/conflict", nil))

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("no-op without an active span", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID(), SpanEnricher())
		router.GET("/", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
