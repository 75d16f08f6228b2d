package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(mqReady func() bool) *Router {
	gin.SetMode(gin.TestMode)
	return NewRouter(nil, nil, nil, nil, nil, &RoleResolver{}, "secret", mqReady)
}

func TestHealthzOK(t *testing.T) {
	router := newTestRouter(func() bool { return true })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthzDegradedWhenMQDown(t *testing.T) {
	router := newTestRouter(func() bool { return false })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","mq":"down"}`, w.Body.String())
}

func TestHealthzWithoutReadinessCheck(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
