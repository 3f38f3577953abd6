package rest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reversihq/reversi-backend/internal/board"
	"github.com/reversihq/reversi-backend/internal/session"
)

func newTestServer(t *testing.T) (*Server, *session.Registry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := session.NewRegistry(logger, 8)

	return New(logger, registry, []string{"*"}), registry
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))

	return out
}

func TestHandlers_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv.Router(), http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandlers_CreateAndFetch(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	// When: a game is created
	rec := doRequest(t, router, http.MethodPost, "/game/create", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	created := decodeBody[map[string]string](t, rec)
	gameID := created["game_id"]
	require.NotEmpty(t, gameID)

	// Then: fetching it returns the opening public state
	rec = doRequest(t, router, http.MethodGet, "/game/"+gameID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeBody[session.State](t, rec)
	require.Equal(t, gameID, state.GameID)
	require.Equal(t, board.Black, state.CurrentTurn)
	require.Equal(t, session.Scores{Black: 2, White: 2}, state.Scores)
	require.Len(t, state.ValidMoves, 4)
	require.Equal(t, session.Slots{Black: session.SlotOpen, White: session.SlotOpen}, state.Slots)

	// Then: winner is the JSON null while the game is live
	require.Nil(t, state.Winner)

	// Then: an unknown identifier is a 404
	rec = doRequest(t, router, http.MethodGet, "/game/no-such-game", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_Claim(t *testing.T) {
	srv, registry := newTestServer(t)
	router := srv.Router()

	sess := registry.Create()

	t.Run("claiming an open side returns a token", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/"+sess.ID()+"/claim", map[string]int{"player": 1})
		require.Equal(t, http.StatusOK, rec.Code)

		claim := decodeBody[map[string]any](t, rec)
		require.NotEmpty(t, claim["token"])
		require.Equal(t, float64(1), claim["player"])
	})

	t.Run("a second claim for the same side conflicts", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/"+sess.ID()+"/claim", map[string]int{"player": 1})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("an invalid side is a bad request", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/"+sess.ID()+"/claim", map[string]int{"player": 3})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("an unknown session is a 404", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/nope/claim", map[string]int{"player": 1})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandlers_Move(t *testing.T) {
	srv, registry := newTestServer(t)
	router := srv.Router()

	sess := registry.Create()

	blackToken, err := sess.Claim(board.Black)
	require.NoError(t, err)
	whiteToken, err := sess.Claim(board.White)
	require.NoError(t, err)

	moveBody := func(x, y, player int, token string) map[string]any {
		return map[string]any{"x": x, "y": y, "player": player, "token": token}
	}

	t.Run("moving out of turn is forbidden", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/"+sess.ID()+"/move", moveBody(2, 4, 2, whiteToken))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("a mismatched token is unauthorized", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/"+sess.ID()+"/move", moveBody(2, 3, 1, "stale-token"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("an illegal square is a bad request", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/"+sess.ID()+"/move", moveBody(0, 0, 1, blackToken))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields are a bad request", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/"+sess.ID()+"/move", map[string]any{"player": 1, "token": blackToken})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("an unknown session is a 404", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/nope/move", moveBody(2, 3, 1, blackToken))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("an authorized legal move returns the new state", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/game/"+sess.ID()+"/move", moveBody(2, 3, 1, blackToken))
		require.Equal(t, http.StatusOK, rec.Code)

		state := decodeBody[session.State](t, rec)
		require.Equal(t, board.White, state.CurrentTurn)
		require.Equal(t, session.Scores{Black: 4, White: 1}, state.Scores)
		require.Equal(t, board.Black, state.Board[3][3])
	})
}

func TestHandlers_Events(t *testing.T) {
	srv, registry := newTestServer(t)

	testServer := httptest.NewServer(srv.Router())
	defer testServer.Close()

	sess := registry.Create()

	// Given: a live SSE subscriber
	resp, err := http.Get(testServer.URL + "/game/" + sess.ID() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// subscription is registered asynchronously by the handler goroutine
	require.Eventually(t, func() bool {
		return sess.Subscribers() == 1
	}, time.Second, 10*time.Millisecond)

	// When: a side is claimed
	_, err = sess.Claim(board.Black)
	require.NoError(t, err)

	// Then: the claim event arrives on the stream
	reader := bufio.NewReader(resp.Body)

	var data string
	for {
		line, readErr := reader.ReadString('\n')
		require.NoError(t, readErr)

		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			break
		}
	}

	var event session.ClaimEvent
	require.NoError(t, json.Unmarshal([]byte(data), &event))
	require.Equal(t, session.EventClaim, event.Type)
	require.Equal(t, session.SlotFilled, event.Slots.Black)
}

func TestHandlers_EventsUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv.Router(), http.MethodGet, fmt.Sprintf("/game/%s/events", "nope"), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
