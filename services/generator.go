package services

import (
	"math/rand/v2"
	"strconv"
)

const (
	codeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength     = 6
	gameIDPrefix   = "game_"
	playerIDPrefix = "player_"
	idMin          = 100000
	idMax          = 999999
)

// Source supplies random integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Generator produces join codes and entity ids. Values are not checked
// against the store, so collisions are possible.
type Generator struct {
	src Source
}

func NewGenerator(src Source) *Generator {
	if src == nil {
		src = globalSource{}
	}
	return &Generator{src: src}
}

func (g *Generator) JoinCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[g.src.IntN(len(codeAlphabet))]
	}
	return string(code)
}

func (g *Generator) GameID() string {
	return gameIDPrefix + strconv.Itoa(g.number())
}

func (g *Generator) PlayerID() string {
	return playerIDPrefix + strconv.Itoa(g.number())
}

func (g *Generator) number() int {
	return idMin + g.src.IntN(idMax-idMin+1)
}
