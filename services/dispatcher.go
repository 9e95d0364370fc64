package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"quizboard/metrics"
	"quizboard/models"
)

const (
	actionCreateGame = "create_game"
	actionJoinGame   = "join_game"

	opPreflight      = "preflight"
	opCreateGame     = "create_game"
	opJoinGame       = "join_game"
	opUpdateScore    = "update_score"
	opLeaderboard    = "get_leaderboard"
	opNotAllowed     = "not_allowed"
	opMalformedInput = "malformed_input"
)

// Dispatcher routes a normalized request to exactly one game operation.
type Dispatcher struct {
	provider Provider
	gen      *Generator
	recorder *metrics.Recorder
}

func NewDispatcher(provider Provider, gen *Generator, recorder *metrics.Recorder) *Dispatcher {
	if gen == nil {
		gen = NewGenerator(nil)
	}
	return &Dispatcher{
		provider: provider,
		gen:      gen,
		recorder: recorder,
	}
}

// Dispatch handles one request. Not-found and unsupported requests come back
// as 404/405 responses; any other failure is returned as an error and the
// caller decides how to surface it.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	start := time.Now()

	method := req.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	// Preflight never touches the store.
	if method == http.MethodOptions {
		resp := preflightResponse()
		d.recorder.Observe(opPreflight, resp.StatusCode, time.Since(start))
		return resp, nil
	}

	op := opNotAllowed
	var resp Response
	err := d.provider.Run(ctx, func(store Store) error {
		var err error
		op, resp, err = d.route(store, method, req)
		return err
	})
	if err != nil {
		d.recorder.Observe(op, http.StatusInternalServerError, time.Since(start))
		return Response{}, fmt.Errorf("%s: %w", op, err)
	}

	d.recorder.Observe(op, resp.StatusCode, time.Since(start))
	return resp, nil
}

func (d *Dispatcher) route(store Store, method string, req Request) (string, Response, error) {
	switch method {
	case http.MethodPost:
		body, err := decodeBody(req.Body)
		if err != nil {
			return opMalformedInput, Response{}, err
		}
		switch body.Action {
		case actionCreateGame:
			resp, err := d.createGame(store)
			return opCreateGame, resp, err
		case actionJoinGame:
			resp, err := d.joinGame(store, body.GameCode, body.PlayerName)
			return opJoinGame, resp, err
		}

	case http.MethodPut:
		body, err := decodeBody(req.Body)
		if err != nil {
			return opMalformedInput, Response{}, err
		}
		resp, err := d.updateScore(store, body.PlayerID, body.ScoreDelta)
		return opUpdateScore, resp, err

	case http.MethodGet:
		if code := req.QueryStringParameters["game_code"]; code != "" {
			resp, err := d.leaderboard(store, code)
			return opLeaderboard, resp, err
		}
	}

	resp, err := errorResponse(http.StatusMethodNotAllowed, msgMethodNotAllowed)
	return opNotAllowed, resp, err
}

func (d *Dispatcher) createGame(store Store) (Response, error) {
	game := models.Game{
		ID:   d.gen.GameID(),
		Code: d.gen.JoinCode(),
	}

	if err := store.CreateGame(&game); err != nil {
		return Response{}, err
	}

	log.Printf("Created game %s with code %s", game.ID, game.Code)
	return jsonResponse(http.StatusOK, CreateGameResponse{GameID: game.ID, Code: game.Code})
}

func (d *Dispatcher) joinGame(store Store, code, name string) (Response, error) {
	game, err := store.GameByCode(code)
	if errors.Is(err, ErrGameNotFound) {
		return errorResponse(http.StatusNotFound, msgGameNotFound)
	}
	if err != nil {
		return Response{}, err
	}

	player := models.Player{
		ID:     d.gen.PlayerID(),
		GameID: game.ID,
		Name:   name,
		Score:  0,
	}
	if err := store.AddPlayer(&player); err != nil {
		return Response{}, err
	}

	log.Printf("Player %s (%s) joined game %s", player.ID, player.Name, game.ID)
	return jsonResponse(http.StatusOK, JoinGameResponse{
		PlayerID: player.ID,
		GameID:   game.ID,
		Name:     player.Name,
	})
}

func (d *Dispatcher) updateScore(store Store, playerID string, delta int) (Response, error) {
	score, err := store.AdjustScore(playerID, delta)
	if errors.Is(err, ErrPlayerNotFound) {
		return errorResponse(http.StatusNotFound, msgPlayerNotFound)
	}
	if err != nil {
		return Response{}, err
	}

	return jsonResponse(http.StatusOK, UpdateScoreResponse{NewScore: score})
}

func (d *Dispatcher) leaderboard(store Store, code string) (Response, error) {
	game, err := store.GameByCode(code)
	if errors.Is(err, ErrGameNotFound) {
		return errorResponse(http.StatusNotFound, msgGameNotFound)
	}
	if err != nil {
		return Response{}, err
	}

	players, err := store.Leaderboard(game.ID)
	if err != nil {
		return Response{}, err
	}

	entries := make([]LeaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, LeaderboardEntry{ID: p.ID, Name: p.Name, Score: p.Score})
	}

	return jsonResponse(http.StatusOK, LeaderboardResponse{
		GameID:  game.ID,
		Code:    code,
		Players: entries,
	})
}

// decodeBody treats a blank body as an empty object.
func decodeBody(raw string) (requestBody, error) {
	var body requestBody
	if strings.TrimSpace(raw) == "" {
		return body, nil
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return requestBody{}, fmt.Errorf("invalid request body: %w", err)
	}
	return body, nil
}
