// internal/opponent/fallback.go
//
// Opponent chaining.
//
// Responsibilities:
//   - Ask the primary provider (usually OpenAI) first.
//   - When it errors, passes or plays an invalid word, log and answer from
//     the secondary (the dictionary).

package opponent

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pheasant/internal/game"
)

type fallback struct {
	primary   game.Provider
	secondary game.Provider
}

// Fallback asks secondary whenever primary errors, has no move, or plays a
// word the rules would reject.
func Fallback(primary, secondary game.Provider) game.Provider {
	return &fallback{primary: primary, secondary: secondary}
}

func (f *fallback) RequestMove(ctx context.Context, req game.MoveRequest) (game.Move, error) {
	mv, err := f.primary.RequestMove(ctx, req)
	if err == nil && !mv.None && game.Validate(req.Chain, game.Normalize(mv.Word), req.MinLength) == nil {
		return mv, nil
	}
	if ctx.Err() != nil {
		return game.Move{}, ctx.Err()
	}
	ev := log.Warn().Str("prefix", req.RequiredPrefix)
	if err != nil {
		ev = ev.Err(err)
	} else {
		ev = ev.Str("word", mv.Word).Bool("none", mv.None)
	}
	ev.Msg("primary opponent failed, using fallback")
	return f.secondary.RequestMove(ctx, req)
}
