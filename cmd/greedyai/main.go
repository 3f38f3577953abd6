package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/reversihq/reversi-backend/internal/board"
	"github.com/reversihq/reversi-backend/internal/session"
)

// greedyai is a reference client for the game API: it claims a side, listens
// to the session's event stream and always plays the move that flips the
// most pieces.
func main() {
	side := flag.Int("side", 2, "side to play: 1 for Black, 2 for White")
	apiURL := flag.String("url", "http://localhost:8000", "API server URL")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	gameID := flag.Arg(0)
	if gameID == "" {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <game-id>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *side != int(board.Black) && *side != int(board.White) {
		logger.Error("side must be 1 (Black) or 2 (White)")
		os.Exit(2)
	}

	bot := &agent{
		apiURL: strings.TrimRight(*apiURL, "/"),
		gameID: gameID,
		side:   board.Cell(*side),
		client: &http.Client{},
		logger: logger.With("gameID", gameID, "side", *side),
	}

	if err := bot.run(); err != nil {
		logger.Error("agent stopped", "error", err)
		os.Exit(1)
	}
}

type agent struct {
	apiURL string
	gameID string
	side   board.Cell
	token  string
	client *http.Client
	logger *slog.Logger
}

type event struct {
	Type  string        `json:"type"`
	State session.State `json:"state"`
}

func (that *agent) run() error {
	if err := that.claimSide(); err != nil {
		return fmt.Errorf("failed to claim side: %w", err)
	}

	that.logger.Info("side claimed, listening for events")

	// The stream carries no backlog, so check whether it is already our turn.
	state, err := that.fetchState()
	if err != nil {
		return fmt.Errorf("failed to fetch state: %w", err)
	}

	if done := that.maybePlay(state); done {
		return nil
	}

	if err = that.listen(); err != nil {
		that.logger.Warn("event stream lost, falling back to polling", "error", err)
		return that.poll()
	}

	return nil
}

func (that *agent) claimSide() error {
	body, err := json.Marshal(map[string]board.Cell{"player": that.side})
	if err != nil {
		return fmt.Errorf("failed to marshal claim: %w", err)
	}

	resp, err := that.client.Post(that.apiURL+"/game/"+that.gameID+"/claim", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("claim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("claim rejected: %s", readError(resp))
	}

	var claim struct {
		Token string `json:"token"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&claim); err != nil {
		return fmt.Errorf("failed to decode claim response: %w", err)
	}

	that.token = claim.Token

	return nil
}

func (that *agent) fetchState() (*session.State, error) {
	resp, err := that.client.Get(that.apiURL + "/game/" + that.gameID)
	if err != nil {
		return nil, fmt.Errorf("state request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("state rejected: %s", readError(resp))
	}

	var state session.State
	if err = json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	return &state, nil
}

// listen consumes the SSE stream and reacts to every committed move.
func (that *agent) listen() error {
	resp, err := that.client.Get(that.apiURL + "/game/" + that.gameID + "/events")
	if err != nil {
		return fmt.Errorf("events request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("events rejected: %s", readError(resp))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var ev event
		if err = json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			that.logger.Warn("skipping undecodable event", "error", err)
			continue
		}

		if ev.Type != session.EventMove {
			continue
		}

		if done := that.maybePlay(&ev.State); done {
			return nil
		}
	}

	if err = scanner.Err(); err != nil {
		return fmt.Errorf("event stream read failed: %w", err)
	}

	return fmt.Errorf("event stream closed")
}

// poll is the degraded mode when the event stream is unavailable.
func (that *agent) poll() error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		state, err := that.fetchState()
		if err != nil {
			return fmt.Errorf("failed to fetch state: %w", err)
		}

		if done := that.maybePlay(state); done {
			return nil
		}
	}

	return nil
}

// maybePlay submits the greedy move when it is our turn. It reports whether
// the game is finished.
func (that *agent) maybePlay(state *session.State) bool {
	if state.IsOver {
		that.logger.Info("game over", "winner", state.Winner, "scores", state.Scores)
		return true
	}

	if state.CurrentTurn != that.side {
		return false
	}

	move, ok := bestMove(state.Board, that.side, state.ValidMoves)
	if !ok {
		that.logger.Info("no valid moves available, waiting for opponent")
		return false
	}

	if err := that.makeMove(move[0], move[1]); err != nil {
		that.logger.Warn("move rejected", "x", move[0], "y", move[1], "error", err)
	}

	return false
}

func (that *agent) makeMove(x, y int) error {
	that.logger.Info("playing move", "x", x, "y", y)

	body, err := json.Marshal(map[string]any{
		"x":      x,
		"y":      y,
		"player": that.side,
		"token":  that.token,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal move: %w", err)
	}

	resp, err := that.client.Post(that.apiURL+"/game/"+that.gameID+"/move", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("move request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("move rejected: %s", readError(resp))
	}

	return nil
}

// bestMove picks the valid move flipping the most pieces; ties go to the
// first move in the server's stable scan order.
func bestMove(b board.Board, side board.Cell, validMoves [][2]int) ([2]int, bool) {
	if len(validMoves) == 0 {
		return [2]int{}, false
	}

	before := count(b, side)

	best := validMoves[0]
	maxFlips := -1
	for _, move := range validMoves {
		applied := b.Apply(side, move[0], move[1])
		// everything gained beyond the placed piece was flipped
		flips := count(applied, side) - before - 1
		if flips > maxFlips {
			maxFlips = flips
			best = move
		}
	}

	return best, true
}

func count(b board.Board, side board.Cell) int {
	black, white := b.Scores()
	if side == board.Black {
		return black
	}
	return white
}

func readError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return resp.Status
	}

	return body.Error
}
