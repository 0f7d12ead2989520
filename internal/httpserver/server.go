// internal/httpserver/server.go
//
// HTTP server wiring for the pheasant backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/leaderboard".
//   - Game endpoints (optional auth): POST /game/new, /game/word, /game/pass, GET /game/{id}.
//   - Live updates: GET /game/{id}/events (websocket, see events.go).
//   - Auth + profile endpoints (see auth.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - A table started by a signed-in user belongs to them; its finished games
//     update their stats in the database (best effort).

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pheasant/internal/config"
	"github.com/robalobadob/pheasant/internal/game"
	"github.com/robalobadob/pheasant/internal/storage/sqlite"
	"github.com/robalobadob/pheasant/internal/store"
	"github.com/robalobadob/pheasant/internal/words"
)

// Server bundles router, table store, DB handle, and the opponent.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	store    store.Store
	db       *sqlite.DB
	provider game.Provider
	events   *hub
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, st store.Store, db *sqlite.DB, p game.Provider) *Server {
	s := &Server{r: chi.NewRouter(), cfg: cfg, store: st, db: db, provider: p, events: newHub()}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(s.cors)          // credentials-friendly CORS

	// Websocket stream: long-lived, so outside the timeout group.
	s.r.Get("/game/{id}/events", s.handleEvents)

	s.r.Group(func(r chi.Router) {
		// Long enough for ?wait to cover a full opponent move.
		r.Use(chimw.Timeout(cfg.OpponentTimeout + 10*time.Second))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"pheasant","endpoints":["/health","POST /game/new","POST /game/word","POST /game/pass","GET /game/{id}","GET /game/{id}/events","/auth/*","/leaderboard"]}`))
		})
		r.Get("/health", s.handleHealth)

		// Game endpoints: optional auth (guests can play)
		r.With(s.withOptionalAuth()).Post("/game/new", s.handleNewGame)
		r.With(s.withOptionalAuth()).Post("/game/word", s.handleWord)
		r.With(s.withOptionalAuth()).Post("/game/pass", s.handlePass)
		r.With(s.withOptionalAuth()).Get("/game/{id}", s.handleGetGame)

		// Auth + profile/stats
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, prefixes := words.Stats()
	body := map[string]any{"ok": true, "tables": s.store.Len(), "words": n, "prefixes": prefixes}
	if err := s.db.Ping(r.Context()); err != nil {
		log.Warn().Err(err).Msg("db ping")
		body["ok"] = false
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// ------------------------------ GAME ---------------------------------------

// newGameReq is the payload for POST /game/new. Zero rule fields use the
// server defaults.
type newGameReq struct {
	GameID        string `json:"gameId"`
	MaxLives      int    `json:"maxLives"`
	MinWordLength int    `json:"minWordLength"`
}

// moveReq is the payload for POST /game/word and POST /game/pass.
type moveReq struct {
	GameID string `json:"gameId"`
	Word   string `json:"word"`
	Wait   bool   `json:"wait"` // block until the opponent has answered
}

// moveRes is returned by the move endpoints, also on rejection.
type moveRes struct {
	Accepted bool          `json:"accepted"`
	Error    string        `json:"error,omitempty"`
	Message  string        `json:"message,omitempty"`
	Snapshot game.Snapshot `json:"snapshot"`
}

// handleNewGame restarts the caller's table when gameId is known, otherwise
// opens a new one. The response is the fresh snapshot; its gameId is the
// handle for every later request.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	// An empty body means "no overrides".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	me := currentUser(r)

	var tbl *game.Table
	if req.GameID != "" {
		t, err := s.store.Get(r.Context(), req.GameID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"lookup_failed"}`, http.StatusInternalServerError)
			return
		}
		if t != nil && !s.mayPlay(t, me) {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
		tbl = t
	}
	created := tbl == nil
	if created {
		tbl = s.newTable(me)
		if err := s.store.Save(r.Context(), tbl); err != nil {
			log.Error().Err(err).Msg("save table")
			http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
			return
		}
	}

	sess, err := tbl.StartNewGame(game.Config{MaxLives: req.MaxLives, MinWordLength: req.MinWordLength})
	if err != nil {
		if created {
			_ = s.store.Delete(r.Context(), tbl.ID)
		}
		http.Error(w, `{"error":"invalid_config"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// newTable opens a table for me (nil for guests) wired to the event hub and,
// for signed-in owners, the stats recorder.
func (s *Server) newTable(me *authUser) *game.Table {
	opts := []game.Option{
		game.WithDefaults(s.cfg.GameDefaults()),
		game.WithListener(s.events),
	}
	if me != nil {
		opts = append(opts, game.WithOwner(me.ID), game.WithListener(s.statsRecorder(me.ID)))
	}
	return game.NewTable(s.provider, opts...)
}

// statsRecorder folds finished games into the owner's stats.
func (s *Server) statsRecorder(userID string) game.Listener {
	return game.ListenerFuncs{OnGameOver: func(snap game.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		res := sqlite.Result{Won: snap.Outcome == game.OutcomePlayerWins, ChainLength: len(snap.Chain)}
		if err := s.db.RecordResult(ctx, userID, res); err != nil {
			log.Warn().Err(err).Str("user", userID).Str("gameId", snap.TableID).Msg("record result")
		}
	}}
}

// mayPlay reports whether me may act on t. Guest tables are open to anyone
// holding the id.
func (s *Server) mayPlay(t *game.Table, me *authUser) bool {
	return t.Owner == "" || (me != nil && me.ID == t.Owner)
}

// session resolves gameId to the current session, writing the error response
// when it cannot.
func (s *Server) session(w http.ResponseWriter, r *http.Request, id string) (*game.Session, bool) {
	t, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	if !s.mayPlay(t, currentUser(r)) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return nil, false
	}
	sess := t.Session()
	if sess == nil {
		http.Error(w, `{"error":"no_game"}`, http.StatusConflict)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleWord(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	s.move(w, r, req, func(sess *game.Session) (game.Snapshot, error) {
		return sess.SubmitPlayerWord(req.Word)
	})
}

func (s *Server) handlePass(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	s.move(w, r, req, func(sess *game.Session) (game.Snapshot, error) {
		return sess.Pass()
	})
}

// move runs one player command and maps its result onto HTTP.
func (s *Server) move(w http.ResponseWriter, r *http.Request, req moveReq, apply func(*game.Session) (game.Snapshot, error)) {
	sess, ok := s.session(w, r, req.GameID)
	if !ok {
		return
	}
	if sess.Snapshot().Turn == game.TurnGameOver {
		snap := sess.Snapshot()
		writeJSON(w, http.StatusConflict, moveRes{Error: "game_over", Message: snap.LastMessage, Snapshot: snap})
		return
	}

	snap, err := apply(sess)
	var rej *game.RejectError
	switch {
	case errors.As(err, &rej):
		writeJSON(w, http.StatusBadRequest, moveRes{Error: string(rej.Reason), Message: rej.Error(), Snapshot: snap})
		return
	case errors.Is(err, game.ErrOpponentTurn):
		writeJSON(w, http.StatusConflict, moveRes{Error: "opponent_turn", Message: err.Error(), Snapshot: snap})
		return
	case err != nil:
		log.Error().Err(err).Str("gameId", req.GameID).Msg("apply move")
		http.Error(w, `{"error":"move_failed"}`, http.StatusInternalServerError)
		return
	}

	if req.Wait {
		if err := sess.Wait(r.Context()); err != nil {
			log.Debug().Err(err).Str("gameId", req.GameID).Msg("wait for opponent")
		}
		snap = sess.Snapshot()
	}
	writeJSON(w, http.StatusOK, moveRes{Accepted: true, Snapshot: snap})
}

// handleGetGame returns the current snapshot. ?wait=1 blocks until the
// opponent has answered.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		_ = sess.Wait(r.Context())
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}
