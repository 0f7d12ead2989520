// internal/game/table.go
//
// A Table is the stable handle a client plays at. Each "new game" replaces the
// table's session with a fresh one carrying the next token; the previous
// session is abandoned so its pending opponent reply cannot leak into the new game.

package game

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Table owns the current session for one client.
type Table struct {
	ID    string
	Owner string // user id of a signed-in owner, "" for guests

	provider  Provider
	defaults  Config
	listeners []Listener
	log       zerolog.Logger

	live   atomic.Uint64 // token of the current session
	emitMu sync.Mutex    // held while a session publishes; see Session.emit

	mu      sync.RWMutex
	session *Session
}

// Option configures a Table.
type Option func(*Table)

// WithDefaults sets the rules used for zero fields of StartNewGame's config.
func WithDefaults(cfg Config) Option { return func(t *Table) { t.defaults = cfg } }

// WithListener registers l for every session started at the table.
func WithListener(l Listener) Option {
	return func(t *Table) { t.listeners = append(t.listeners, l) }
}

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option { return func(t *Table) { t.log = l } }

// WithOwner records the signed-in user playing at the table.
func WithOwner(userID string) Option { return func(t *Table) { t.Owner = userID } }

// NewTable creates a table with no session. Call StartNewGame before playing.
func NewTable(p Provider, opts ...Option) *Table {
	t := &Table{
		ID:       uuid.NewString(),
		provider: p,
		defaults: DefaultConfig(),
		log:      log.Logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With().Str("table", t.ID).Logger()
	return t
}

// StartNewGame abandons the current session, if any, and starts a fresh one.
// Zero fields of cfg are taken from the table defaults.
func (t *Table) StartNewGame(cfg Config) (*Session, error) {
	cfg = cfg.withDefaults(t.defaults)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The token bump and the first snapshot are one step for listeners: an
	// older session mid-publish finishes first, later ones are dropped.
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	prev := t.session
	token := t.live.Add(1)
	s := newSession(sessionParams{
		id:        uuid.NewString(),
		tableID:   t.ID,
		token:     token,
		live:      &t.live,
		emitMu:    &t.emitMu,
		cfg:       cfg,
		provider:  t.provider,
		listeners: t.listeners,
		log:       t.log,
	})
	t.session = s
	t.mu.Unlock()

	if prev != nil {
		prev.abandon()
	}
	t.log.Debug().Str("session", s.id).Uint64("token", token).Int("maxLives", cfg.MaxLives).Msg("new game")
	s.emitLocked(s.Snapshot(), false)
	return s, nil
}

// Session returns the current session, or nil before the first game.
func (t *Table) Session() *Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session
}
