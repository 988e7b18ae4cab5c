package yaneuraou

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/discochess/openbook/internal/book"
)

const (
	hirate    = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"
	after7g7f = "lnsgkgsnl/1r5b1/ppppppppp/9/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 1"
)

// canonical is already sorted and in the exact layout Store produces.
const canonical = `#YANEURAOU-DB2016 1.00
sfen lnsgkgsnl/1r5b1/ppppppppp/9/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 1
3c3d 6g6f -32 none 
sfen lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1
2g2f 8c8d 42 20 123
#ibisha
#popular
7g7f 3c3d none none 
`

func TestLoad(t *testing.T) {
	b, err := Load(strings.NewReader(canonical))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.Format != book.FormatYaneuraOu {
		t.Errorf("Format = %q", b.Format)
	}
	if b.EntryCount != 2 {
		t.Errorf("EntryCount = %d, want 2", b.EntryCount)
	}

	moves := b.Moves(hirate)
	if len(moves) != 2 {
		t.Fatalf("moves = %+v", moves)
	}
	m := moves[0]
	if m.Move != "2g2f" || m.ReplyMove != "8c8d" || *m.Score != 42 || *m.Depth != 20 || *m.Count != 123 {
		t.Errorf("first move = %+v", m)
	}
	if m.Comment != "ibisha\npopular" {
		t.Errorf("comment = %q", m.Comment)
	}
	m = moves[1]
	if m.Move != "7g7f" || m.ReplyMove != "3c3d" || m.Score != nil || m.Depth != nil || m.Count != nil {
		t.Errorf("second move = %+v", m)
	}

	reply := b.Moves(after7g7f)
	if len(reply) != 1 || reply[0].ReplyMove != "6g6f" || *reply[0].Score != -32 {
		t.Errorf("reply moves = %+v", reply)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	b, err := Load(iotest.OneByteReader(strings.NewReader(canonical)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var buf bytes.Buffer
	if err := Store(b, &buf); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if buf.String() != canonical {
		t.Errorf("Store() =\n%s\nwant\n%s", buf.String(), canonical)
	}
}

func TestStore_SortsAndWritesEntryComments(t *testing.T) {
	b := book.New(book.FormatYaneuraOu)
	if err := b.Update(hirate, book.Move{Move: "7g7f", ReplyMove: "3c3d", Comment: "popular"}); err != nil {
		t.Fatal(err)
	}
	if err := b.Update(after7g7f, book.Move{Move: "3c3d", ReplyMove: "6g6f", Score: book.Int(-32)}); err != nil {
		t.Fatal(err)
	}
	b.Entries[hirate].Comment = "start\nposition"

	var buf bytes.Buffer
	if err := Store(b, &buf); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	want := Header + "\n" +
		"sfen " + after7g7f + "\n" +
		"3c3d 6g6f -32 none \n" +
		"sfen " + hirate + "\n" +
		"#start\n#position\n" +
		"7g7f 3c3d none none \n" +
		"#popular\n"
	if buf.String() != want {
		t.Errorf("Store() =\n%q\nwant\n%q", buf.String(), want)
	}

	again, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := again.Entries[hirate].Comment; got != "start\nposition" {
		t.Errorf("entry comment = %q", got)
	}
}

func TestStore_CommentRoundTrip(t *testing.T) {
	comments := []string{
		"single",
		"two\nlines",
		"\nleading blank",
		"trailing blank\n",
		"\n",
		"a\n\nb",
	}

	for _, comment := range comments {
		t.Run(strings.ReplaceAll(comment, "\n", "|"), func(t *testing.T) {
			b := book.New(book.FormatYaneuraOu)
			if err := b.Update(hirate, book.Move{Move: "7g7f", Comment: comment}); err != nil {
				t.Fatal(err)
			}
			b.Entries[hirate].Comment = comment

			var buf bytes.Buffer
			if err := Store(b, &buf); err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			again, err := Load(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := again.Entries[hirate].Comment; got != comment {
				t.Errorf("entry comment = %q, want %q", got, comment)
			}
			if got := again.Moves(hirate)[0].Comment; got != comment {
				t.Errorf("loaded move comment = %q, want %q", got, comment)
			}

			moves, err := Search(bytes.NewReader(buf.Bytes()), int64(buf.Len()), hirate)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(moves) != 1 || moves[0].Comment != comment {
				t.Errorf("searched moves = %+v, want comment %q", moves, comment)
			}
		})
	}
}

func TestLoad_Variants(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantErr   error
		wantMoves []string
		wantDup   int
	}{
		{
			name:      "crlf and ignored lines",
			data:      "#YANEURAOU-DB2016 1.00\r\n// generated\r\n\r\nsfen p b - 1\r\n7g7f none 1 2 3\r\n",
			wantMoves: []string{"7g7f"},
		},
		{
			name:      "duplicate move is counted",
			data:      "sfen p b - 1\n7g7f none 1 none 1\n#kept\n7g7f none 2 none 2\n#dropped\n2g2f none 0 none 0\n",
			wantMoves: []string{"7g7f", "2g2f"},
			wantDup:   1,
		},
		{
			name:      "short move line",
			data:      "sfen p b - 1\n7g7f\n",
			wantMoves: []string{"7g7f"},
		},
		{
			name:    "move before position",
			data:    "#YANEURAOU-DB2016 1.00\n7g7f none 1 2 3\n",
			wantErr: book.ErrFormat,
		},
		{
			name:    "bad number",
			data:    "sfen p b - 1\n7g7f none abc none 1\n",
			wantErr: book.ErrFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Load(strings.NewReader(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			var names []string
			for _, m := range b.Moves("p b - 1") {
				names = append(names, m.Move)
			}
			if !slices.Equal(names, tt.wantMoves) {
				t.Errorf("moves = %v, want %v", names, tt.wantMoves)
			}
			if b.DuplicateCount != tt.wantDup {
				t.Errorf("DuplicateCount = %d, want %d", b.DuplicateCount, tt.wantDup)
			}
		})
	}
}

func TestLoad_DuplicateCommentDiscarded(t *testing.T) {
	data := "sfen p b - 1\n7g7f none 1 none 1\n#kept\n7g7f none 2 none 2\n#dropped\n"
	b, err := Load(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := b.Moves("p b - 1")[0].Comment; got != "kept" {
		t.Errorf("comment = %q, want %q", got, "kept")
	}
	if got := b.Entries["p b - 1"].Comment; got != "" {
		t.Errorf("entry comment = %q, want empty", got)
	}
}

func TestValidateOrdering(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "sorted", data: canonical},
		{name: "empty", data: ""},
		{name: "unsorted", data: "sfen b\n7g7f\nsfen a\n2g2f\n", wantErr: true},
		{name: "repeated", data: "sfen a\n7g7f\nsfen a\n2g2f\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrdering(strings.NewReader(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateOrdering() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, book.ErrFormat) {
				t.Errorf("error = %v, want ErrFormat", err)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	r := strings.NewReader(canonical)
	size := int64(len(canonical))

	moves, err := Search(r, size, hirate)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(moves) != 2 || moves[0].Move != "2g2f" || moves[1].Move != "7g7f" {
		t.Fatalf("Search() = %+v", moves)
	}
	if moves[0].Comment != "ibisha\npopular" || moves[1].Comment != "" {
		t.Errorf("comments = %q, %q", moves[0].Comment, moves[1].Comment)
	}

	moves, err = Search(r, size, after7g7f)
	if err != nil || len(moves) != 1 || moves[0].Move != "3c3d" {
		t.Errorf("Search(after 7g7f) = %+v, %v", moves, err)
	}

	moves, err = Search(r, size, "9/9/9/9/9/9/9/9/9 b - 1")
	if err != nil || moves == nil || len(moves) != 0 {
		t.Errorf("Search(absent) = %v, %v, want empty slice", moves, err)
	}
}

func TestSearch_InlineComment(t *testing.T) {
	data := "sfen a\n7g7f none 1 none 1 main line\n#second\n7g7f none 2 none 2\n#dropped\nsfen b\n"
	moves, err := Search(strings.NewReader(data), int64(len(data)), "a")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(moves) != 1 || *moves[0].Score != 1 || moves[0].Comment != "main line\nsecond" {
		t.Errorf("Search() = %+v", moves)
	}
}

func TestSearchMatchesLoad(t *testing.T) {
	b := book.New(book.FormatYaneuraOu)
	for i := 0; i < 200; i++ {
		key := strings.Repeat("k", 1+i%5) + string(rune('A'+i%26)) + string(rune('a'+i/26))
		_ = b.Update(key, book.Move{Move: "7g7f", Score: book.Int(i)})
		_ = b.Update(key, book.Move{Move: "2g2f", Count: book.Int(i)})
	}
	var buf bytes.Buffer
	if err := Store(b, &buf); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := ValidateOrdering(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("ValidateOrdering() error = %v", err)
	}
	r := bytes.NewReader(buf.Bytes())
	for key := range b.Entries {
		moves, err := Search(r, int64(buf.Len()), key)
		if err != nil {
			t.Fatalf("Search(%q) error = %v", key, err)
		}
		want := b.Moves(key)
		if len(moves) != len(want) || *moves[0].Score != *want[0].Score || *moves[1].Count != *want[1].Count {
			t.Errorf("Search(%q) = %+v, want %+v", key, moves, want)
		}
	}
}
