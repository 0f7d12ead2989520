// internal/httpserver/events.go
//
// Live game updates over websocket.
//
// The hub is registered as a game.Listener on every table and fans snapshots
// out to the sockets watching that table. Each socket has a small buffer; a
// client that falls behind misses intermediate states but always receives
// later ones, and GET /game/{id} stays the source of truth.

package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pheasant/internal/game"
)

const (
	subscriberBuffer = 16
	writeWait        = 10 * time.Second
)

// Event is one websocket message.
type Event struct {
	Type     string        `json:"type"` // "state" | "game_over"
	Snapshot game.Snapshot `json:"snapshot"`
}

// hub routes session events to subscribers by table id.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan Event]struct{})}
}

func (h *hub) StateChanged(snap game.Snapshot) { h.publish(Event{Type: "state", Snapshot: snap}) }
func (h *hub) GameOver(snap game.Snapshot)     { h.publish(Event{Type: "game_over", Snapshot: snap}) }

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.Snapshot.TableID] {
		select {
		case ch <- ev:
		default:
			log.Debug().Str("gameId", ev.Snapshot.TableID).Str("type", ev.Type).Msg("subscriber behind, dropping event")
		}
	}
}

// subscribe returns a channel of events for tableID and its cancel func.
func (h *hub) subscribe(tableID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	if h.subs[tableID] == nil {
		h.subs[tableID] = make(map[chan Event]struct{})
	}
	h.subs[tableID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[tableID], ch)
		if len(h.subs[tableID]) == 0 {
			delete(h.subs, tableID)
		}
	}
}

func (h *hub) subscribers(tableID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[tableID])
}

// upgrader only accepts the configured client origin (or non-browser clients
// sending no Origin).
func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == s.cfg.ClientOrigin
		},
	}
}

// handleEvents streams the table's snapshots until the client goes away.
// The current snapshot is sent first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tbl, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if tbl.Owner != "" {
		me, err := s.authenticate(r)
		if err != nil || me.ID != tbl.Owner {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
	}

	// Subscribe first so nothing published after the handshake is missed.
	events, cancel := s.events.subscribe(id)
	defer cancel()

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	// Reader: the client sends nothing, but reading notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Str("gameId", id).Msg("websocket read")
				}
				return
			}
		}
	}()

	if sess := tbl.Session(); sess != nil {
		if err := writeEvent(conn, Event{Type: "state", Snapshot: sess.Snapshot()}); err != nil {
			return
		}
	}
	for {
		select {
		case <-closed:
			return
		case ev := <-events:
			if err := writeEvent(conn, ev); err != nil {
				log.Debug().Err(err).Str("gameId", id).Msg("websocket write")
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
