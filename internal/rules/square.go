package rules

import (
	"fmt"
	"strings"
)

// Square identifies one of the 64 board cells, A1=0 .. H8=63
// (rank-major, matching the chess library's square numbering).
type Square int

const NoSquare Square = -1

// NewSquare builds a square from zero-based file (a=0) and rank (1st=0)
// coordinates.
func NewSquare(file, rank int) (Square, error) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("square out of range: file=%d rank=%d", file, rank)
	}
	return Square(rank*8 + file), nil
}

// ParseSquare accepts algebraic coordinates such as "e2".
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	return NewSquare(file, rank)
}

func (sq Square) Valid() bool { return sq >= 0 && sq < 64 }

func (sq Square) File() int { return int(sq) % 8 }

func (sq Square) Rank() int { return int(sq) / 8 }

func (sq Square) String() string {
	if !sq.Valid() {
		return "-"
	}
	return string(rune('a'+sq.File())) + string(rune('1'+sq.Rank()))
}

// Move is an origin/destination pair in board coordinates. Promotion is the
// lowercase UCI piece letter ("q", "r", "b", "n") or empty.
type Move struct {
	From      Square
	To        Square
	Promotion string
}

// UCI renders the move in UCI text form, e.g. "e2e4" or "e7e8q".
func (m Move) UCI() string {
	return m.From.String() + m.To.String() + m.Promotion
}

// ParseMove accepts UCI text such as "e2e4" or "a7a8q".
func ParseMove(uci string) (Move, error) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	if len(uci) != 4 && len(uci) != 5 {
		return Move{}, fmt.Errorf("invalid uci move %q", uci)
	}
	from, err := ParseSquare(uci[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("invalid uci move %q: %w", uci, err)
	}
	to, err := ParseSquare(uci[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("invalid uci move %q: %w", uci, err)
	}
	promo := ""
	if len(uci) == 5 {
		switch uci[4] {
		case 'q', 'r', 'b', 'n':
			promo = string(uci[4])
		default:
			return Move{}, fmt.Errorf("invalid promotion in %q", uci)
		}
	}
	return Move{From: from, To: to, Promotion: promo}, nil
}
