package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizboard/middleware"
	"quizboard/services"
)

type downProvider struct{}

func (downProvider) Run(ctx context.Context, fn func(services.Store) error) error {
	return errors.New("dial tcp: connection refused")
}

func newTestRouter(t *testing.T, provider services.Provider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if provider == nil {
		mini := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		t.Cleanup(func() { client.Close() })
		provider = services.NewRedisProvider(client)
	}

	h := NewQuizHandler(services.NewDispatcher(provider, nil, nil))
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Any("/", h.Handle)
	router.POST("/invoke", h.Invoke)
	return router
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHandleGameFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	w := serve(router, http.MethodPost, "/", `{"action":"create_game"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	var game services.CreateGameResponse
	decode(t, w, &game)

	w = serve(router, http.MethodPost, "/", `{"action":"join_game","game_code":"`+game.Code+`","player_name":"Alice"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var player services.JoinGameResponse
	decode(t, w, &player)
	assert.Equal(t, game.GameID, player.GameID)

	w = serve(router, http.MethodPut, "/", `{"player_id":"`+player.PlayerID+`","score_delta":9}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"new_score": 9}`, w.Body.String())

	w = serve(router, http.MethodGet, "/?game_code="+game.Code, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var board services.LeaderboardResponse
	decode(t, w, &board)
	assert.Equal(t, []services.LeaderboardEntry{{ID: player.PlayerID, Name: "Alice", Score: 9}}, board.Players)
}

func TestHandlePreflight(t *testing.T) {
	router := newTestRouter(t, downProvider{})

	w := serve(router, http.MethodOptions, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "GET, POST, PUT, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, X-Game-Code", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleNotFoundAndNotAllowed(t *testing.T) {
	router := newTestRouter(t, nil)

	w := serve(router, http.MethodGet, "/?game_code=NOPE00", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "Game not found"}`, w.Body.String())

	w = serve(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error": "Method not allowed"}`, w.Body.String())

	w = serve(router, http.MethodDelete, "/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleStoreFailure(t *testing.T) {
	router := newTestRouter(t, downProvider{})

	w := serve(router, http.MethodPost, "/", `{"action":"create_game"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error": "Internal server error"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestHandleMalformedBody(t *testing.T) {
	router := newTestRouter(t, nil)

	w := serve(router, http.MethodPost, "/", `{"action":`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestInvokeEnvelope(t *testing.T) {
	router := newTestRouter(t, nil)

	w := serve(router, http.MethodPost, "/invoke", `{"httpMethod":"POST","body":"{\"action\":\"create_game\"}"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.Response
	decode(t, w, &resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var game services.CreateGameResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &game))
	assert.Len(t, game.Code, 6)

	w = serve(router, http.MethodPost, "/invoke",
		`{"httpMethod":"GET","queryStringParameters":{"game_code":"`+game.Code+`"}}`)
	decode(t, w, &resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, game.GameID)
}

func TestInvokeStoreFailure(t *testing.T) {
	router := newTestRouter(t, downProvider{})

	w := serve(router, http.MethodPost, "/invoke", `{"httpMethod":"PUT","body":"{}"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp services.Response
	decode(t, w, &resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error": "Internal server error"}`, resp.Body)
}

func TestInvokeRejectsBadEnvelope(t *testing.T) {
	router := newTestRouter(t, nil)

	w := serve(router, http.MethodPost, "/invoke", `not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
