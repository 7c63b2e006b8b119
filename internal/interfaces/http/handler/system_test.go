package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(context.Context) error {
	return p.err
}

func newSystemRouter(db Pinger) *gin.Engine {
	router := gin.New()
	NewSystemHandler(db).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestPing(t *testing.T) {
	router := newSystemRouter(&stubPinger{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}

func TestHealth(t *testing.T) {
	t.Run("healthy when the database responds", func(t *testing.T) {
		router := newSystemRouter(&stubPinger{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	})

	t.Run("503 when the database is unreachable", func(t *testing.T) {
		router := newSystemRouter(&stubPinger{err: assert.AnError})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
