package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/pheasant/internal/config"
	"github.com/robalobadob/pheasant/internal/game"
	"github.com/robalobadob/pheasant/internal/storage/sqlite"
	"github.com/robalobadob/pheasant/internal/store"
)

// replies answers by required prefix; unknown prefixes get NoMove.
func replies(m map[string]string) game.Provider {
	return game.ProviderFunc(func(_ context.Context, req game.MoveRequest) (game.Move, error) {
		if w, ok := m[req.RequiredPrefix]; ok {
			return game.Play(w), nil
		}
		return game.NoMove(), nil
	})
}

func testConfig() config.Config {
	return config.Config{
		ClientOrigin:    "http://localhost:5173",
		JWTSecret:       "test-secret",
		JWTExpiresDays:  1,
		CookieName:      "pheasant_token",
		MaxLives:        5,
		MinWordLength:   3,
		Opponent:        config.OpponentDictionary,
		OpponentTimeout: 2 * time.Second,
	}
}

func newTestServer(t *testing.T, p game.Provider) *httptest.Server {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := New(testConfig(), store.NewMemoryStore(), db, p)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func post(t *testing.T, c *http.Client, target string, body, out any) int {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := c.Post(target, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func get(t *testing.T, c *http.Client, target string, out any) int {
	t.Helper()
	res, err := c.Get(target)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func newGame(t *testing.T, c *http.Client, base string, req newGameReq) game.Snapshot {
	t.Helper()
	var snap game.Snapshot
	require.Equal(t, http.StatusOK, post(t, c, base+"/game/new", req, &snap))
	require.NotEmpty(t, snap.TableID)
	return snap
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, replies(nil))
	var body map[string]any
	assert.Equal(t, http.StatusOK, get(t, ts.Client(), ts.URL+"/health", &body))
	assert.Equal(t, true, body["ok"])
}

func TestPlayAgainstOpponent(t *testing.T) {
	ts := newTestServer(t, replies(map[string]string{"nt": "nteresting"}))
	c := newClient(t)

	snap := newGame(t, c, ts.URL, newGameReq{})
	assert.Equal(t, game.TurnPlayer, snap.Turn)
	assert.Equal(t, 5, snap.PlayerLives)
	assert.Empty(t, snap.Chain)

	var res moveRes
	status := post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "Pheasant", Wait: true}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, res.Accepted)
	assert.Equal(t, []string{"pheasant", "nteresting"}, res.Snapshot.Words())
	assert.Equal(t, "ng", res.Snapshot.RequiredPrefix)
	assert.Equal(t, game.TurnPlayer, res.Snapshot.Turn)

	var got game.Snapshot
	require.Equal(t, http.StatusOK, get(t, c, ts.URL+"/game/"+snap.TableID, &got))
	assert.Equal(t, res.Snapshot.Words(), got.Words())
}

func TestRejectedWord(t *testing.T) {
	ts := newTestServer(t, replies(map[string]string{"er": "error"}))
	c := newClient(t)
	snap := newGame(t, c, ts.URL, newGameReq{})

	var res moveRes
	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "tiger", Wait: true}, &res))

	status := post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "apple"}, &res)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, res.Accepted)
	assert.Equal(t, string(game.ReasonWrongPrefix), res.Error)
	assert.Contains(t, res.Message, "'or'")
	assert.Equal(t, []string{"tiger", "error"}, res.Snapshot.Words())
	assert.Equal(t, 5, res.Snapshot.PlayerLives)

	status = post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "ox"}, &res)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(game.ReasonTooShort), res.Error)
}

func TestWordWhileOpponentThinks(t *testing.T) {
	release := make(chan struct{})
	p := game.ProviderFunc(func(ctx context.Context, _ game.MoveRequest) (game.Move, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return game.Play("error"), nil
	})
	ts := newTestServer(t, p)
	c := newClient(t)
	snap := newGame(t, c, ts.URL, newGameReq{})

	var res moveRes
	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "tiger"}, &res))
	assert.Equal(t, game.TurnOpponent, res.Snapshot.Turn)

	status := post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "errand"}, &res)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "opponent_turn", res.Error)

	close(release)
	var got game.Snapshot
	require.Equal(t, http.StatusOK, get(t, c, ts.URL+"/game/"+snap.TableID+"?wait=1", &got))
	assert.Equal(t, []string{"tiger", "error"}, got.Words())
}

func TestPassAndGameOver(t *testing.T) {
	ts := newTestServer(t, replies(nil))
	c := newClient(t)
	snap := newGame(t, c, ts.URL, newGameReq{MaxLives: 2})
	assert.Equal(t, 2, snap.MaxLives)

	var res moveRes
	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/game/pass", moveReq{GameID: snap.TableID, Wait: true}, &res))
	assert.Equal(t, 1, res.Snapshot.PlayerLives)
	assert.Equal(t, 1, res.Snapshot.OpponentLives, "opponent had no answer either")

	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "pheasant", Wait: true}, &res))
	assert.Equal(t, game.TurnGameOver, res.Snapshot.Turn)
	assert.Equal(t, game.OutcomePlayerWins, res.Snapshot.Outcome)
	assert.Equal(t, 0, res.Snapshot.OpponentLives)

	status := post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "nto"}, &res)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "game_over", res.Error)
	assert.Equal(t, []string{"pheasant"}, res.Snapshot.Words())

	again := newGame(t, c, ts.URL, newGameReq{GameID: snap.TableID})
	assert.Equal(t, snap.TableID, again.TableID, "restart keeps the table")
	assert.Equal(t, uint64(2), again.Token)
	assert.Equal(t, game.TurnPlayer, again.Turn)
}

func TestGameErrors(t *testing.T) {
	ts := newTestServer(t, replies(nil))
	c := newClient(t)

	assert.Equal(t, http.StatusNotFound, post(t, c, ts.URL+"/game/word", moveReq{GameID: "missing", Word: "tiger"}, nil))
	assert.Equal(t, http.StatusNotFound, get(t, c, ts.URL+"/game/missing", nil))
	assert.Equal(t, http.StatusBadRequest, post(t, c, ts.URL+"/game/new", newGameReq{MaxLives: -1}, nil))

	res, err := c.Post(ts.URL+"/game/word", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestNewGameBody(t *testing.T) {
	ts := newTestServer(t, replies(nil))
	c := newClient(t)

	res, err := c.Post(ts.URL+"/game/new", "application/json", strings.NewReader(`{"maxLives":`))
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "bad_json", body["error"])

	res, err = c.Post(ts.URL+"/game/new", "application/json", http.NoBody)
	require.NoError(t, err)
	var snap game.Snapshot
	require.NoError(t, json.NewDecoder(res.Body).Decode(&snap))
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, snap.TableID)
	assert.Equal(t, testConfig().MaxLives, snap.MaxLives, "an empty body starts a game with the defaults")
}

func TestAuthAndStats(t *testing.T) {
	ts := newTestServer(t, replies(nil))
	c := newClient(t)

	var me authUser
	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/auth/signup", credentials{Username: "alice", Password: "password1"}, &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, http.StatusConflict, post(t, newClient(t), ts.URL+"/auth/signup", credentials{Username: "ALICE", Password: "password1"}, nil))

	require.Equal(t, http.StatusOK, get(t, c, ts.URL+"/auth/me", &me))
	assert.Equal(t, "alice", me.Username)

	snap := newGame(t, c, ts.URL, newGameReq{MaxLives: 1})
	var res moveRes
	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "pheasant", Wait: true}, &res))
	require.Equal(t, game.OutcomePlayerWins, res.Snapshot.Outcome)

	var stats map[string]any
	require.Equal(t, http.StatusOK, get(t, c, ts.URL+"/stats/me", &stats))
	assert.EqualValues(t, 1, stats["gamesPlayed"])
	assert.EqualValues(t, 1, stats["wins"])
	assert.EqualValues(t, 1, stats["longestChain"])

	var board []sqlite.LeaderboardRow
	require.Equal(t, http.StatusOK, get(t, ts.Client(), ts.URL+"/leaderboard", &board))
	require.Len(t, board, 1)
	assert.Equal(t, "alice", board[0].Username)

	guest := newClient(t)
	assert.Equal(t, http.StatusForbidden, get(t, guest, ts.URL+"/game/"+snap.TableID, nil), "owned tables are private")
	assert.Equal(t, http.StatusUnauthorized, get(t, guest, ts.URL+"/stats/me", nil))

	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, get(t, c, ts.URL+"/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, post(t, newClient(t), ts.URL+"/auth/login", credentials{Username: "alice", Password: "wrong-password"}, nil))
	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/auth/login", credentials{Username: "alice", Password: "password1"}, nil))
	assert.Equal(t, http.StatusOK, get(t, c, ts.URL+"/auth/me", nil))
}

func TestBearerToken(t *testing.T) {
	ts := newTestServer(t, replies(nil))
	c := newClient(t)
	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/auth/signup", credentials{Username: "bob", Password: "password2"}, nil))

	base, err := url.Parse(ts.URL)
	require.NoError(t, err)
	cookies := c.Jar.Cookies(base)
	require.NotEmpty(t, cookies)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+cookies[0].Value)
	res, err := ts.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	req.Header.Set("Authorization", "Bearer not-a-token")
	res, err = ts.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t, replies(nil))
	c := newClient(t)
	snap := newGame(t, c, ts.URL, newGameReq{MaxLives: 1})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + snap.TableID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "state", ev.Type)
	assert.Equal(t, snap.TableID, ev.Snapshot.TableID)

	require.Equal(t, http.StatusOK, post(t, c, ts.URL+"/game/word", moveReq{GameID: snap.TableID, Word: "pheasant", Wait: true}, nil))

	var types []string
	for {
		require.NoError(t, conn.ReadJSON(&ev))
		types = append(types, ev.Type)
		if ev.Type == "game_over" {
			break
		}
	}
	assert.Equal(t, []string{"state", "state", "game_over"}, types)
	assert.Equal(t, game.OutcomePlayerWins, ev.Snapshot.Outcome)
}

func TestEventsRejectsForeignOrigin(t *testing.T) {
	ts := newTestServer(t, replies(nil))
	snap := newGame(t, newClient(t), ts.URL, newGameReq{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + snap.TableID + "/events"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := newHub()
	events, cancel := h.subscribe("t1")
	for i := 0; i < subscriberBuffer+5; i++ {
		h.StateChanged(game.Snapshot{TableID: "t1"})
	}
	h.GameOver(game.Snapshot{TableID: "other"})
	assert.Len(t, events, subscriberBuffer)
	assert.Equal(t, 1, h.subscribers("t1"))
	cancel()
	assert.Equal(t, 0, h.subscribers("t1"))
}
