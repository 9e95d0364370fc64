package services

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Request is the normalized inbound request, shaped like a serverless HTTP event.
type Request struct {
	HTTPMethod            string            `json:"httpMethod"`
	Body                  string            `json:"body"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
}

// Response is the normalized outbound envelope. Body is a JSON document or empty.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type requestBody struct {
	Action     string `json:"action"`
	GameCode   string `json:"game_code"`
	PlayerName string `json:"player_name"`
	PlayerID   string `json:"player_id"`
	ScoreDelta int    `json:"score_delta"`
}

type CreateGameResponse struct {
	GameID string `json:"game_id"`
	Code   string `json:"code"`
}

type JoinGameResponse struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id"`
	Name     string `json:"name"`
}

type UpdateScoreResponse struct {
	NewScore int `json:"new_score"`
}

type LeaderboardEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type LeaderboardResponse struct {
	GameID  string             `json:"game_id"`
	Code    string             `json:"code"`
	Players []LeaderboardEntry `json:"players"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	msgGameNotFound     = "Game not found"
	msgPlayerNotFound   = "Player not found"
	msgMethodNotAllowed = "Method not allowed"
	msgInternalError    = "Internal server error"
)

func jsonHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

func preflightResponse() Response {
	return Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET, POST, PUT, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type, X-Game-Code",
			"Access-Control-Max-Age":       "86400",
		},
		Body: "",
	}
}

func jsonResponse(status int, payload interface{}) (Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}
	return Response{StatusCode: status, Headers: jsonHeaders(), Body: string(data)}, nil
}

func errorResponse(status int, message string) (Response, error) {
	return jsonResponse(status, ErrorResponse{Error: message})
}

// InternalErrorResponse is the opaque envelope for failures the dispatcher does not shape itself.
func InternalErrorResponse() Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Headers:    jsonHeaders(),
		Body:       `{"error":"` + msgInternalError + `"}`,
	}
}
