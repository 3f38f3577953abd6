package board

// Size is the fixed edge length of the playing grid.
const Size = 8

// Cell is the content of a single board cell. The numeric values are part
// of the wire format: 0 empty, 1 black, 2 white.
type Cell uint8

const (
	Empty Cell = iota
	Black
	White
)

// Board is the 8x8 grid, indexed [y][x] with (0,0) at the top-left corner.
// It is a value type: Apply returns a new board and never mutates its
// receiver, so callers can hand out snapshots freely.
type Board [Size][Size]Cell

// The 8 compass directions, clockwise from north.
var directions = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// New returns a board with the canonical Reversi opening: two black and two
// white pieces on the four center cells in the diagonal arrangement.
func New() Board {
	var b Board
	b[3][3] = White
	b[3][4] = Black
	b[4][3] = Black
	b[4][4] = White

	return b
}

// Opponent returns the other playing color.
func Opponent(p Cell) Cell {
	if p == Black {
		return White
	}
	return Black
}

func inBounds(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

// IsLegalMove reports whether placing p at (x, y) flanks at least one line
// of opponent pieces in any of the 8 directions.
func (that Board) IsLegalMove(p Cell, x, y int) bool {
	if !inBounds(x, y) || that[y][x] != Empty {
		return false
	}

	for _, dir := range directions {
		if that.flanks(p, x, y, dir[0], dir[1]) {
			return true
		}
	}

	return false
}

// flanks reports whether the line starting one step from (x, y) in the given
// direction holds one or more opponent pieces terminated by one of p's own.
func (that Board) flanks(p Cell, x, y, dx, dy int) bool {
	opponent := Opponent(p)

	nx, ny := x+dx, y+dy
	if !inBounds(nx, ny) || that[ny][nx] != opponent {
		return false
	}

	for {
		nx += dx
		ny += dy
		if !inBounds(nx, ny) || that[ny][nx] == Empty {
			return false
		}
		if that[ny][nx] == p {
			return true
		}
	}
}

// Apply places p at (x, y) and flips every flanked opponent piece, returning
// the resulting board. The move must already have passed IsLegalMove.
func (that Board) Apply(p Cell, x, y int) Board {
	next := that
	next[y][x] = p

	opponent := Opponent(p)

	for _, dir := range directions {
		var line [][2]int

		nx, ny := x+dir[0], y+dir[1]
		for inBounds(nx, ny) && next[ny][nx] == opponent {
			line = append(line, [2]int{nx, ny})
			nx += dir[0]
			ny += dir[1]
		}

		if inBounds(nx, ny) && next[ny][nx] == p {
			for _, cell := range line {
				next[cell[1]][cell[0]] = p
			}
		}
	}

	return next
}

// LegalMoves returns every cell where p may move, scanned row by row so the
// order is stable for clients.
func (that Board) LegalMoves(p Cell) [][2]int {
	moves := make([][2]int, 0)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			if that.IsLegalMove(p, x, y) {
				moves = append(moves, [2]int{x, y})
			}
		}
	}

	return moves
}

// Scores counts the pieces of each color.
func (that Board) Scores() (black, white int) {
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			switch that[y][x] {
			case Black:
				black++
			case White:
				white++
			}
		}
	}

	return black, white
}
