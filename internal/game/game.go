package game

import (
	"github.com/reversihq/reversi-backend/internal/apperror"
	"github.com/reversihq/reversi-backend/internal/board"
)

// WinnerDraw marks a finished game with equal piece counts. The zero value
// doubles as the wire encoding for a draw.
const WinnerDraw = board.Empty

// Game is the turn state machine over one board. Winner is meaningful only
// once Over is true.
type Game struct {
	Board  board.Board
	Turn   board.Cell
	Over   bool
	Winner board.Cell
}

// New returns a game on the opening board with Black to move.
func New() *Game {
	return &Game{
		Board: board.New(),
		Turn:  board.Black,
	}
}

// MakeMove validates and applies a move for p at (x, y). All rejections
// happen before any mutation, so a failed move leaves the game untouched.
func (that *Game) MakeMove(p board.Cell, x, y int) error {
	if that.Over {
		return apperror.ErrGameOver
	}

	if that.Turn != p {
		return apperror.ErrNotYourTurn
	}

	if !that.Board.IsLegalMove(p, x, y) {
		return apperror.ErrIllegalMove
	}

	that.Board = that.Board.Apply(p, x, y)
	that.nextTurn()

	return nil
}

// nextTurn advances the turn after a committed move: the opponent moves if
// they can, otherwise the mover keeps the turn (enforced pass), and if
// neither side has a legal move the game ends.
func (that *Game) nextTurn() {
	opponent := board.Opponent(that.Turn)

	switch {
	case len(that.Board.LegalMoves(opponent)) > 0:
		that.Turn = opponent
	case len(that.Board.LegalMoves(that.Turn)) > 0:
		// opponent has no move, current player keeps the turn
	default:
		that.end()
	}
}

func (that *Game) end() {
	that.Over = true

	black, white := that.Board.Scores()
	switch {
	case black > white:
		that.Winner = board.Black
	case white > black:
		that.Winner = board.White
	default:
		that.Winner = WinnerDraw
	}
}

// ValidMoves lists the legal moves for the side to move.
func (that *Game) ValidMoves() [][2]int {
	return that.Board.LegalMoves(that.Turn)
}

// Scores counts the pieces of each color.
func (that *Game) Scores() (black, white int) {
	return that.Board.Scores()
}
