package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"quizboard/models"
)

const keyPrefix = "quizboard:"

func gameKey(id string) string        { return keyPrefix + "game:" + id }
func codeKey(code string) string      { return keyPrefix + "code:" + code }
func playerKey(id string) string      { return keyPrefix + "player:" + id }
func leaderboardKey(id string) string { return gameKey(id) + ":players" }

// Inserts fail when the id is already taken, matching a primary key violation.
var createGameScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], 'code', ARGV[1]) == 0 then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

var addPlayerScript = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], 'game_id', ARGV[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'name', ARGV[2], 'score', 0)
redis.call('ZADD', KEYS[2], 0, ARGV[3])
return 1
`)

// The leaderboard key depends on the player's game, so it is built in the script.
var adjustScoreScript = redis.NewScript(`
local gameID = redis.call('HGET', KEYS[1], 'game_id')
if not gameID then
	return false
end
local score = redis.call('HINCRBY', KEYS[1], 'score', ARGV[1])
redis.call('ZADD', ARGV[2] .. gameID .. ARGV[3], score, ARGV[4])
return score
`)

// RedisProvider keeps games and players in Redis. Each unit of work checks out
// a dedicated connection; every write runs as a single server-side script.
type RedisProvider struct {
	client *redis.Client
}

func NewRedisProvider(client *redis.Client) *RedisProvider {
	return &RedisProvider{client: client}
}

func (p *RedisProvider) Run(ctx context.Context, fn func(Store) error) error {
	conn := p.client.Conn()
	defer conn.Close()

	return fn(&redisStore{ctx: ctx, conn: conn})
}

type redisStore struct {
	ctx  context.Context
	conn *redis.Conn
}

func (s *redisStore) CreateGame(game *models.Game) error {
	created, err := createGameScript.Run(s.ctx, s.conn,
		[]string{gameKey(game.ID), codeKey(game.Code)},
		game.Code, game.ID,
	).Int()
	if err != nil {
		return fmt.Errorf("insert game %s: %w", game.ID, err)
	}
	if created == 0 {
		return fmt.Errorf("insert game %s: %w", game.ID, ErrDuplicateKey)
	}
	return nil
}

func (s *redisStore) GameByCode(code string) (*models.Game, error) {
	id, err := s.conn.Get(s.ctx, codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find game by code: %w", err)
	}
	return &models.Game{ID: id, Code: code}, nil
}

func (s *redisStore) AddPlayer(player *models.Player) error {
	created, err := addPlayerScript.Run(s.ctx, s.conn,
		[]string{playerKey(player.ID), leaderboardKey(player.GameID)},
		player.GameID, player.Name, player.ID,
	).Int()
	if err != nil {
		return fmt.Errorf("insert player %s: %w", player.ID, err)
	}
	if created == 0 {
		return fmt.Errorf("insert player %s: %w", player.ID, ErrDuplicateKey)
	}
	return nil
}

func (s *redisStore) AdjustScore(playerID string, delta int) (int, error) {
	score, err := adjustScoreScript.Run(s.ctx, s.conn,
		[]string{playerKey(playerID)},
		delta, keyPrefix+"game:", ":players", playerID,
	).Int()
	if errors.Is(err, redis.Nil) {
		return 0, ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update score for %s: %w", playerID, err)
	}
	return score, nil
}

func (s *redisStore) Leaderboard(gameID string) ([]models.Player, error) {
	ids, err := s.conn.ZRevRange(s.ctx, leaderboardKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list players for %s: %w", gameID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.SliceCmd, len(ids))
	_, err = s.conn.Pipelined(s.ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HMGet(s.ctx, playerKey(id), "name", "score")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load players for %s: %w", gameID, err)
	}

	players := make([]models.Player, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		name, _ := fields[0].(string)
		raw, _ := fields[1].(string)
		score, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("player %s has invalid score %q: %w", id, raw, err)
		}
		players = append(players, models.Player{ID: id, GameID: gameID, Name: name, Score: score})
	}
	return players, nil
}
