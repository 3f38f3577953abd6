package session

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/reversihq/reversi-backend/internal/apperror"
	"github.com/reversihq/reversi-backend/internal/board"
	"github.com/reversihq/reversi-backend/internal/broadcast"
	"github.com/reversihq/reversi-backend/internal/game"
)

const (
	SlotOpen   = "open"
	SlotFilled = "filled"

	EventMove  = "move"
	EventClaim = "claim"
)

// Slots is the public availability summary of the two playable sides.
type Slots struct {
	Black string `json:"black"`
	White string `json:"white"`
}

// Scores holds the piece counts of both sides.
type Scores struct {
	Black int `json:"black"`
	White int `json:"white"`
}

// State is the public snapshot of a session, shaped for the wire. Winner is
// null while the game is in progress, 0 on a draw, otherwise the winning
// side's piece value.
type State struct {
	GameID      string      `json:"game_id"`
	Board       board.Board `json:"board"`
	CurrentTurn board.Cell  `json:"current_turn"`
	IsOver      bool        `json:"is_over"`
	Winner      *board.Cell `json:"winner"`
	Scores      Scores      `json:"scores"`
	ValidMoves  [][2]int    `json:"valid_moves"`
	Slots       Slots       `json:"slots"`
}

// MoveEvent is broadcast after every committed move and carries the full
// post-move snapshot.
type MoveEvent struct {
	Type  string `json:"type"`
	State State  `json:"state"`
}

// ClaimEvent is broadcast after a side is claimed. Claiming does not alter
// gameplay, so only the slot summary is carried.
type ClaimEvent struct {
	Type  string `json:"type"`
	Slots Slots  `json:"slots"`
}

// Session is one independent game: the turn state machine, the two claimable
// side slots and the event subscribers, all guarded by a single mutex so no
// two mutations ever interleave.
type Session struct {
	id     string
	logger *slog.Logger
	events *broadcast.Broadcaster

	mu         sync.Mutex
	game       *game.Game
	blackToken string
	whiteToken string
}

func New(logger *slog.Logger, id string, eventBuffer int) *Session {
	return &Session{
		id:     id,
		logger: logger.With("component", "session", "gameID", id),
		events: broadcast.New(logger, eventBuffer),
		game:   game.New(),
	}
}

// ID returns the immutable session identifier.
func (that *Session) ID() string {
	return that.id
}

// State returns the current public snapshot.
func (that *Session) State() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshot()
}

// Claim atomically fills the slot for side and returns its freshly minted
// token. A filled slot is never re-issued: the caller gets ErrSlotTaken and
// must pick the other side or spectate.
func (that *Session) Claim(side board.Cell) (string, error) {
	if side != board.Black && side != board.White {
		return "", apperror.ErrInvalidPlayer
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	slot := that.slotFor(side)
	if *slot != "" {
		return "", apperror.ErrSlotTaken
	}

	token := uuid.NewString()
	*slot = token

	that.logger.Info("side claimed", "side", side)
	that.publish(ClaimEvent{Type: EventClaim, Slots: that.slots()})

	return token, nil
}

// Move authorizes and applies a move for side at (x, y). Authorization
// failures, turn violations and rules violations are distinct errors, all
// raised before any state changes; a rejected move publishes nothing.
func (that *Session) Move(side board.Cell, token string, x, y int) (State, error) {
	if side != board.Black && side != board.White {
		return State{}, apperror.ErrInvalidPlayer
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if slot := that.slotFor(side); *slot == "" || *slot != token {
		return State{}, apperror.ErrBadToken
	}

	if err := that.game.MakeMove(side, x, y); err != nil {
		return State{}, err
	}

	state := that.snapshot()

	that.logger.Info("move applied", "side", side, "x", x, "y", y, "over", state.IsOver)
	that.publish(MoveEvent{Type: EventMove, State: state})

	return state, nil
}

// Subscribe registers an event listener with this session's broadcaster.
func (that *Session) Subscribe() *broadcast.Subscriber {
	return that.events.Subscribe()
}

// Unsubscribe releases a listener registration.
func (that *Session) Unsubscribe(sub *broadcast.Subscriber) {
	that.events.Unsubscribe(sub)
}

// Subscribers reports the number of live event listeners.
func (that *Session) Subscribers() int {
	return that.events.Count()
}

// slotFor must be called with the mutex held.
func (that *Session) slotFor(side board.Cell) *string {
	if side == board.Black {
		return &that.blackToken
	}
	return &that.whiteToken
}

// slots must be called with the mutex held.
func (that *Session) slots() Slots {
	status := func(token string) string {
		if token == "" {
			return SlotOpen
		}
		return SlotFilled
	}

	return Slots{Black: status(that.blackToken), White: status(that.whiteToken)}
}

// snapshot must be called with the mutex held.
func (that *Session) snapshot() State {
	black, white := that.game.Scores()

	state := State{
		GameID:      that.id,
		Board:       that.game.Board,
		CurrentTurn: that.game.Turn,
		IsOver:      that.game.Over,
		Scores:      Scores{Black: black, White: white},
		ValidMoves:  that.game.ValidMoves(),
		Slots:       that.slots(),
	}

	if that.game.Over {
		winner := that.game.Winner
		state.Winner = &winner
	}

	return state
}

// publish marshals the event and hands it to the broadcaster. Sends are
// non-blocking, so publishing under the session mutex cannot stall and
// keeps fan-out in commit order.
func (that *Session) publish(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "error", err)
		return
	}

	that.events.Publish(payload)
}
