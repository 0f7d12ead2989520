// internal/game/types.go
//
// Core type definitions for the word-chain engine.
// Defines:
//   - Side, Turn, Outcome: who plays, whose move it is, who won.
//   - Round: transient description of the last half-turn.
//   - Config: per-session rules (lives, minimum word length, opponent bound).
//   - Snapshot: read-only copy of a session handed to listeners and the HTTP layer.

package game

import (
	"fmt"
	"time"
)

// Side identifies a participant.
type Side string

const (
	SidePlayer   Side = "player"
	SideOpponent Side = "opponent"
)

// Turn is the session state machine. Exactly one value is active at a time.
type Turn string

const (
	TurnPlayer   Turn = "player"
	TurnOpponent Turn = "opponent"
	TurnGameOver Turn = "game_over"
)

// Outcome is set once the session reaches TurnGameOver.
type Outcome string

const (
	OutcomeNone         Outcome = ""
	OutcomePlayerWins   Outcome = "player_wins"
	OutcomeOpponentWins Outcome = "opponent_wins"
)

// RoundKind classifies a completed half-turn.
type RoundKind string

const (
	RoundAccepted RoundKind = "accepted"
	RoundLifeLost RoundKind = "life_lost"
)

// Round describes the most recent half-turn. It is never persisted.
type Round struct {
	Side   Side      `json:"side"`
	Kind   RoundKind `json:"kind"`
	Word   string    `json:"word,omitempty"`
	Reason Reason    `json:"reason,omitempty"`
}

// Entry is one accepted word in the chain together with who played it.
type Entry struct {
	Word string `json:"word"`
	By   Side   `json:"by"`
}

const (
	DefaultMaxLives      = 5
	DefaultMinWordLength = 3

	// DefaultOpponentTimeout bounds a provider call when no timeout is configured.
	DefaultOpponentTimeout = 15 * time.Second
)

// Config holds the rules for a single session.
type Config struct {
	MaxLives      int
	MinWordLength int
	// OpponentTimeout bounds one provider call. Tables never leave it at zero.
	OpponentTimeout time.Duration
}

// DefaultConfig returns the classic rules: five lives, three-letter words.
func DefaultConfig() Config {
	return Config{MaxLives: DefaultMaxLives, MinWordLength: DefaultMinWordLength, OpponentTimeout: DefaultOpponentTimeout}
}

// withDefaults fills zero fields from def. A timeout left at zero by both
// falls back to DefaultOpponentTimeout, so table games are always bounded.
func (c Config) withDefaults(def Config) Config {
	if c.MaxLives == 0 {
		c.MaxLives = def.MaxLives
	}
	if c.MinWordLength == 0 {
		c.MinWordLength = def.MinWordLength
	}
	if c.OpponentTimeout == 0 {
		c.OpponentTimeout = def.OpponentTimeout
	}
	if c.OpponentTimeout == 0 {
		c.OpponentTimeout = DefaultOpponentTimeout
	}
	return c
}

// Validate reports ErrInvalidConfig when lives or word length are below 1.
func (c Config) Validate() error {
	if c.MaxLives < 1 {
		return fmt.Errorf("%w: max lives must be at least 1, got %d", ErrInvalidConfig, c.MaxLives)
	}
	if c.MinWordLength < 1 {
		return fmt.Errorf("%w: min word length must be at least 1, got %d", ErrInvalidConfig, c.MinWordLength)
	}
	if c.OpponentTimeout < 0 {
		return fmt.Errorf("%w: opponent timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Snapshot is a copy of a session's observable state.
type Snapshot struct {
	TableID        string  `json:"gameId"`
	SessionID      string  `json:"sessionId"`
	Token          uint64  `json:"token"`
	Chain          []Entry `json:"chain"`
	RequiredPrefix string  `json:"requiredPrefix"`
	PlayerLives    int     `json:"playerLives"`
	OpponentLives  int     `json:"opponentLives"`
	MaxLives       int     `json:"maxLives"`
	MinWordLength  int     `json:"minWordLength"`
	Turn           Turn    `json:"turn"`
	Outcome        Outcome `json:"outcome,omitempty"`
	LastMessage    string  `json:"lastMessage"`
	LastRound      *Round  `json:"lastRound,omitempty"`
}

// Words returns the chain without ownership information.
func (s Snapshot) Words() []string {
	out := make([]string, len(s.Chain))
	for i, e := range s.Chain {
		out[i] = e.Word
	}
	return out
}
