// internal/opponent/dictionary.go
//
// Local opponent backed by the word list. Picks a random dictionary word that
// starts with the required prefix and has not been played yet.

package opponent

import (
	"context"
	"math/rand"
	"unicode/utf8"

	"github.com/robalobadob/pheasant/internal/game"
	"github.com/robalobadob/pheasant/internal/words"
)

// Dictionary answers from a words.Dictionary.
type Dictionary struct {
	dict *words.Dictionary
	pick func(n int) int // index in [0,n); swapped in tests
}

// NewDictionary returns a provider that never errors: it either plays a word or
// reports NoMove.
func NewDictionary(d *words.Dictionary) *Dictionary {
	return &Dictionary{dict: d, pick: rand.Intn}
}

func (d *Dictionary) RequestMove(ctx context.Context, req game.MoveRequest) (game.Move, error) {
	if err := ctx.Err(); err != nil {
		return game.Move{}, err
	}
	used := make(map[string]struct{}, len(req.Chain))
	for _, w := range req.Chain {
		used[w] = struct{}{}
	}

	var options []string
	for _, w := range d.dict.Candidates(req.RequiredPrefix) {
		if _, ok := used[w]; ok {
			continue
		}
		if utf8.RuneCountInString(w) < req.MinLength {
			continue
		}
		options = append(options, w)
	}
	if len(options) == 0 {
		return game.NoMove(), nil
	}
	return game.Play(options[d.pick(len(options))]), nil
}
