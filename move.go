package openbook

import (
	"strconv"
	"strings"

	"github.com/discochess/openbook/internal/book"
)

// Move is a candidate move for a position.
type Move struct {
	// Move is the move in the notation of the store's move codec,
	// such as "7g7f" for shogi or "e2e4" for chess.
	Move string

	// ReplyMove is the expected reply. Only text books can store it.
	ReplyMove string

	// Score is the evaluation from the mover's point of view.
	// Nil when unset. Apery books require it.
	Score *int

	// Depth is the search depth of Score. Only text books can store it.
	Depth *int

	// Count is how often the move was played. Nil when unset.
	// Apery books require it.
	Count *int

	// Comment is free text. Only text books can store it.
	Comment string
}

// Int returns a pointer to v, for populating optional fields.
func Int(v int) *int {
	return book.Int(v)
}

// String renders the move as a text book move line without comment.
// Examples: "7g7f 3c3d 32 20 5", "2g2f none none none ".
func (m Move) String() string {
	reply := m.ReplyMove
	if reply == "" {
		reply = "none"
	}
	count := ""
	if m.Count != nil {
		count = strconv.Itoa(*m.Count)
	}
	return strings.Join([]string{m.Move, reply, optionalInt(m.Score), optionalInt(m.Depth), count}, " ")
}

// HasScore reports whether the move carries an evaluation.
func (m Move) HasScore() bool {
	return m.Score != nil
}

func optionalInt(p *int) string {
	if p == nil {
		return "none"
	}
	return strconv.Itoa(*p)
}

// toBookMove converts a public Move to the internal model.
func toBookMove(m Move) book.Move {
	return book.Move{
		Move:      m.Move,
		ReplyMove: m.ReplyMove,
		Score:     m.Score,
		Depth:     m.Depth,
		Count:     m.Count,
		Comment:   m.Comment,
	}.Clone()
}

// fromBookMoves converts internal moves to public Moves. The result is
// never nil.
func fromBookMoves(moves []book.Move) []Move {
	out := make([]Move, len(moves))
	for i, bm := range moves {
		bm = bm.Clone()
		out[i] = Move{
			Move:      bm.Move,
			ReplyMove: bm.ReplyMove,
			Score:     bm.Score,
			Depth:     bm.Depth,
			Count:     bm.Count,
			Comment:   bm.Comment,
		}
	}
	return out
}
