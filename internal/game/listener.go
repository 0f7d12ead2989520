// internal/game/listener.go
//
// Session event callbacks.
//
// Responsibilities:
//   - Listener: StateChanged after every mutation, GameOver once per session.
//   - ListenerFuncs: adapter for callers that only need one of the two.

package game

// Listener receives session events. Calls for one session are sequential and
// happen in transition order; implementations must not call back into the
// session synchronously.
type Listener interface {
	// StateChanged fires after every mutation, including the fresh state of a new game.
	StateChanged(snap Snapshot)
	// GameOver fires exactly once per session, right after the final StateChanged.
	GameOver(snap Snapshot)
}

// ListenerFuncs adapts optional callbacks to Listener.
type ListenerFuncs struct {
	OnStateChanged func(Snapshot)
	OnGameOver     func(Snapshot)
}

func (l ListenerFuncs) StateChanged(snap Snapshot) {
	if l.OnStateChanged != nil {
		l.OnStateChanged(snap)
	}
}

func (l ListenerFuncs) GameOver(snap Snapshot) {
	if l.OnGameOver != nil {
		l.OnGameOver(snap)
	}
}
