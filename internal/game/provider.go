// internal/game/provider.go
//
// The opponent contract seen by the engine.
//
// Responsibilities:
//   - MoveRequest: chain, required prefix and minimum length handed to the opponent.
//   - Move: a word or an explicit "no move".
//   - Provider / ProviderFunc: the pluggable opponent, local or remote.

package game

import "context"

// MoveRequest is what the opponent sees when asked for a word.
type MoveRequest struct {
	Chain          []string // accepted words, oldest first, normalized
	RequiredPrefix string   // "" when the chain is empty
	MinLength      int
}

// Move is a provider's answer: a word, or None when it found nothing.
type Move struct {
	Word string
	None bool
}

// Play wraps a word as a Move.
func Play(word string) Move { return Move{Word: word} }

// NoMove reports that the provider could not find a word.
func NoMove() Move { return Move{None: true} }

// Provider supplies the automated opponent's candidate word.
//
// RequestMove may block on network or computation and should honour ctx.
// Any returned error is treated as a fault and costs the opponent a life;
// the engine never retries.
type Provider interface {
	RequestMove(ctx context.Context, req MoveRequest) (Move, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req MoveRequest) (Move, error)

func (f ProviderFunc) RequestMove(ctx context.Context, req MoveRequest) (Move, error) {
	return f(ctx, req)
}
