package openbook

import (
	"testing"

	"github.com/discochess/openbook/internal/book"
)

func TestMove_String(t *testing.T) {
	tests := []struct {
		move Move
		want string
	}{
		{move: Move{Move: "2g2f"}, want: "2g2f none none none "},
		{move: Move{Move: "7g7f", ReplyMove: "3c3d", Score: Int(32), Depth: Int(20), Count: Int(5)}, want: "7g7f 3c3d 32 20 5"},
		{move: Move{Move: "e2e4", Score: Int(-15), Comment: "king pawn"}, want: "e2e4 none -15 none "},
	}
	for _, tt := range tests {
		if got := tt.move.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFromBookMoves_Copies(t *testing.T) {
	in := []Move{{Move: "7g7f", Count: Int(1)}}
	out := fromBookMoves([]book.Move{toBookMove(in[0])})
	*in[0].Count = 9
	if *out[0].Count != 1 || out[0].HasScore() {
		t.Errorf("converted move shares storage: %+v", out[0])
	}
	if got := fromBookMoves(nil); got == nil || len(got) != 0 {
		t.Errorf("fromBookMoves(nil) = %v, want empty slice", got)
	}
}
