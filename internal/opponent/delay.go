// internal/opponent/delay.go
//
// Artificial thinking time for opponents.
//
// Responsibilities:
//   - Wait a fixed duration before delegating to the wrapped provider.
//   - Give up early when the request context is cancelled.

package opponent

import (
	"context"
	"time"

	"github.com/robalobadob/pheasant/internal/game"
)

type delayed struct {
	p game.Provider
	d time.Duration
}

// Delayed makes p "think" for d before answering. A cancelled ctx ends the
// wait early with ctx.Err(). d <= 0 returns p unchanged.
func Delayed(p game.Provider, d time.Duration) game.Provider {
	if d <= 0 {
		return p
	}
	return &delayed{p: p, d: d}
}

func (x *delayed) RequestMove(ctx context.Context, req game.MoveRequest) (game.Move, error) {
	t := time.NewTimer(x.d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return game.Move{}, ctx.Err()
	case <-t.C:
	}
	return x.p.RequestMove(ctx, req)
}
