// internal/game/engine.go
//
// Core engine for a single word-chain session.
// Responsibilities:
//   - Validate and apply player words (length, prefix, uniqueness).
//   - Run exactly one opponent request per player half-turn, off the caller's goroutine.
//   - Convert every provider outcome into a life penalty or an accepted word.
//   - Track transitions: player → opponent → player, and either → game_over.
//
// Notes:
//   - A session is never reset. Tables create a new one for each game and bump the
//     token; opponent replies carrying an old token are dropped.
//   - Listeners are invoked outside the session lock, in transition order.
package game

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Session holds the authoritative state of one game.
type Session struct {
	id        string
	tableID   string
	token     uint64
	live      *atomic.Uint64 // token of the table's current session
	emitMu    *sync.Mutex    // shared by the table's sessions; orders events across games
	cfg       Config
	provider  Provider
	listeners []Listener
	log       zerolog.Logger

	ctx    context.Context // cancelled when the session is abandoned
	cancel context.CancelFunc

	mu            sync.Mutex
	chain         []Entry
	playerLives   int
	opponentLives int
	turn          Turn
	outcome       Outcome
	message       string
	round         *Round
	abandoned     bool
	pending       chan struct{} // closed once the in-flight opponent move resolves
}

type sessionParams struct {
	id        string
	tableID   string
	token     uint64
	live      *atomic.Uint64
	emitMu    *sync.Mutex
	cfg       Config
	provider  Provider
	listeners []Listener
	log       zerolog.Logger
}

func newSession(p sessionParams) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	if p.live == nil {
		p.live = new(atomic.Uint64)
		p.live.Store(p.token)
	}
	if p.emitMu == nil {
		p.emitMu = new(sync.Mutex)
	}
	return &Session{
		id:            p.id,
		tableID:       p.tableID,
		token:         p.token,
		live:          p.live,
		emitMu:        p.emitMu,
		cfg:           p.cfg,
		provider:      p.provider,
		listeners:     p.listeners,
		log:           p.log,
		ctx:           ctx,
		cancel:        cancel,
		chain:         []Entry{},
		playerLives:   p.cfg.MaxLives,
		opponentLives: p.cfg.MaxLives,
		turn:          TurnPlayer,
		message:       "Your turn! Enter any word to start.",
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Token returns the session's position in its table's sequence of games.
func (s *Session) Token() uint64 { return s.token }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SubmitPlayerWord validates text and, when it is legal, appends it and hands
// the turn to the opponent.
//
// Returns:
//   - *RejectError (ErrEmptyWord, ErrTooShort, ErrWrongPrefix, ErrDuplicateWord)
//     when a rule is broken; nothing changes and no life is lost.
//   - ErrOpponentTurn while the opponent move is pending.
//   - nil with an unchanged snapshot once the game is over.
func (s *Session) SubmitPlayerWord(text string) (Snapshot, error) {
	s.mu.Lock()
	if s.turn != TurnPlayer {
		snap, err := s.snapshotLocked(), s.turnErrLocked()
		s.mu.Unlock()
		return snap, err
	}

	word := Normalize(text)
	if err := Validate(s.wordsLocked(), word, s.cfg.MinWordLength); err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}

	s.chain = append(s.chain, Entry{Word: word, By: SidePlayer})
	s.round = &Round{Side: SidePlayer, Kind: RoundAccepted, Word: word}
	s.message = "You played: " + word
	req, done := s.beginOpponentLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap, false)
	go s.runOpponent(req, done)
	return snap, nil
}

// Pass gives up the player's half-turn. The player loses a life and, unless
// that ends the game, the opponent must answer the same chain.
func (s *Session) Pass() (Snapshot, error) {
	s.mu.Lock()
	if s.turn != TurnPlayer {
		snap, err := s.snapshotLocked(), s.turnErrLocked()
		s.mu.Unlock()
		return snap, err
	}

	s.round = &Round{Side: SidePlayer, Kind: RoundLifeLost, Reason: ReasonPassed}
	s.message = "You passed and lose a life"
	over := s.loseLifeLocked(SidePlayer)

	var (
		req  MoveRequest
		done chan struct{}
	)
	if !over {
		req, done = s.beginOpponentLocked()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap, over)
	if !over {
		go s.runOpponent(req, done)
	}
	return snap, nil
}

// Wait blocks until no opponent move is pending or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.pending
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// turnErrLocked is the answer to a player command outside the player's turn:
// ErrOpponentTurn while the opponent thinks, nil (a no-op) after game over.
func (s *Session) turnErrLocked() error {
	if s.turn == TurnOpponent {
		return ErrOpponentTurn
	}
	return nil
}

// beginOpponentLocked moves to TurnOpponent and captures the request the
// provider will see.
func (s *Session) beginOpponentLocked() (MoveRequest, chan struct{}) {
	s.turn = TurnOpponent
	done := make(chan struct{})
	s.pending = done
	words := s.wordsLocked()
	prefix := ""
	if len(words) > 0 {
		prefix = RequiredPrefix(words[len(words)-1])
	}
	return MoveRequest{Chain: words, RequiredPrefix: prefix, MinLength: s.cfg.MinWordLength}, done
}

// runOpponent performs the opponent half-turn. It is the only goroutine that
// may move the session out of TurnOpponent.
func (s *Session) runOpponent(req MoveRequest, done chan struct{}) {
	defer close(done)

	mv, err := s.requestMove(req)

	s.mu.Lock()
	if s.abandoned || s.live.Load() != s.token || s.turn != TurnOpponent {
		s.mu.Unlock()
		s.log.Debug().Str("session", s.id).Uint64("token", s.token).Msg("discarding stale opponent move")
		return
	}
	over := s.applyOpponentLocked(classify(req.Chain, req.MinLength, mv, err))
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap, over)
}

type providerReply struct {
	mv  Move
	err error
}

// requestMove calls the provider under the session context and the configured
// bound. A panic or an unanswered deadline is reported as an error.
func (s *Session) requestMove(req MoveRequest) (Move, error) {
	ctx := s.ctx
	if s.cfg.OpponentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.OpponentTimeout)
		defer cancel()
	}

	ch := make(chan providerReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- providerReply{err: fmt.Errorf("opponent provider panic: %v", r)}
			}
		}()
		mv, err := s.provider.RequestMove(ctx, req)
		ch <- providerReply{mv: mv, err: err}
	}()

	select {
	case r := <-ch:
		return r.mv, r.err
	case <-ctx.Done():
		return Move{}, fmt.Errorf("opponent move: %w", ctx.Err())
	}
}

// applyOpponentLocked applies one classified opponent result and returns true
// when it ended the game.
func (s *Session) applyOpponentLocked(res opponentResult) bool {
	over := false
	switch r := res.(type) {
	case accepted:
		s.chain = append(s.chain, Entry{Word: r.word, By: SideOpponent})
		s.round = &Round{Side: SideOpponent, Kind: RoundAccepted, Word: r.word}
		s.message = "Opponent played: " + r.word
	case empty:
		s.round = &Round{Side: SideOpponent, Kind: RoundLifeLost, Reason: ReasonProviderEmpty}
		s.message = "Opponent could not find a word and loses a life"
		over = s.loseLifeLocked(SideOpponent)
	case invalid:
		s.round = &Round{Side: SideOpponent, Kind: RoundLifeLost, Word: r.word, Reason: r.err.Reason}
		s.message = opponentRejectMessage(r)
		over = s.loseLifeLocked(SideOpponent)
	case fault:
		s.log.Warn().Err(r.err).Str("session", s.id).Msg("opponent provider failed")
		s.round = &Round{Side: SideOpponent, Kind: RoundLifeLost, Reason: ReasonProviderFault}
		s.message = "Opponent failed to answer and loses a life"
		over = s.loseLifeLocked(SideOpponent)
	default:
		panic(fmt.Sprintf("game: unhandled opponent result %T", res))
	}
	if s.turn != TurnGameOver {
		s.turn = TurnPlayer
	}
	return over
}

// loseLifeLocked takes one life from side (never below zero) and re-evaluates
// termination. It reports whether the game ended.
func (s *Session) loseLifeLocked(side Side) bool {
	switch side {
	case SidePlayer:
		s.playerLives = max(s.playerLives-1, 0)
	case SideOpponent:
		s.opponentLives = max(s.opponentLives-1, 0)
	}
	return s.evaluateTerminationLocked()
}

// evaluateTerminationLocked ends the game when a side is out of lives.
// The player is checked first, so a double knock-out is an opponent win.
func (s *Session) evaluateTerminationLocked() bool {
	if s.turn == TurnGameOver {
		return false
	}
	switch {
	case s.playerLives == 0:
		s.outcome = OutcomeOpponentWins
		s.message = "Game over! Opponent wins!"
	case s.opponentLives == 0:
		s.outcome = OutcomePlayerWins
		s.message = "Congratulations! You win!"
	default:
		return false
	}
	s.turn = TurnGameOver
	return true
}

// abandon detaches the session from its table. A pending provider call is
// cancelled and its reply dropped.
func (s *Session) abandon() {
	s.mu.Lock()
	s.abandoned = true
	s.mu.Unlock()
	s.cancel()
}

// emit publishes snap unless the table has moved on to a newer game. The
// check and the listener calls share the table's emit lock, so nothing from a
// replaced session is delivered after the next game's first snapshot.
func (s *Session) emit(snap Snapshot, gameOver bool) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.live.Load() != s.token {
		s.log.Debug().Str("session", s.id).Uint64("token", s.token).Msg("dropping event from replaced session")
		return
	}
	s.emitLocked(snap, gameOver)
}

// emitLocked calls the listeners. The caller holds emitMu.
func (s *Session) emitLocked(snap Snapshot, gameOver bool) {
	for _, l := range s.listeners {
		l.StateChanged(snap)
	}
	if gameOver {
		for _, l := range s.listeners {
			l.GameOver(snap)
		}
	}
}

func (s *Session) wordsLocked() []string {
	out := make([]string, len(s.chain))
	for i, e := range s.chain {
		out[i] = e.Word
	}
	return out
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		TableID:       s.tableID,
		SessionID:     s.id,
		Token:         s.token,
		Chain:         append([]Entry(nil), s.chain...),
		PlayerLives:   s.playerLives,
		OpponentLives: s.opponentLives,
		MaxLives:      s.cfg.MaxLives,
		MinWordLength: s.cfg.MinWordLength,
		Turn:          s.turn,
		Outcome:       s.outcome,
		LastMessage:   s.message,
	}
	if snap.Chain == nil {
		snap.Chain = []Entry{}
	}
	if n := len(s.chain); n > 0 {
		snap.RequiredPrefix = RequiredPrefix(s.chain[n-1].Word)
	}
	if s.round != nil {
		r := *s.round
		snap.LastRound = &r
	}
	return snap
}
