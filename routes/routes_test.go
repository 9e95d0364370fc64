package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"quizboard/handlers"
	"quizboard/metrics"
	"quizboard/middleware"
	"quizboard/services"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { client.Close() })

	reg := prometheus.NewRegistry()
	dispatcher := services.NewDispatcher(services.NewRedisProvider(client), nil, metrics.NewRecorder(reg))

	router := gin.New()
	SetupRoutes(router, handlers.NewQuizHandler(dispatcher), metrics.Handler(reg))
	return router
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(t)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestDispatchEndpoints(t *testing.T) {
	router := setupRouter(t)

	for _, path := range []string{"/", "/api/quiz"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"action":"create_game"}`))
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"game_id":"game_`)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `quizboard_requests_total{operation="preflight",status="200"} 1`)
}
