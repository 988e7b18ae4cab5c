package book

import (
	"errors"
	"slices"
	"testing"
)

func moveNames(moves []Move) []string {
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.Move
	}
	return names
}

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		path            string
		wantFormat      Format
		wantCompression string
		wantErr         bool
	}{
		{path: "/books/user_book1.db", wantFormat: FormatYaneuraOu},
		{path: "book.BIN", wantFormat: FormatApery},
		{path: "book.db.zst", wantFormat: FormatYaneuraOu, wantCompression: ".zst"},
		{path: "book.bin.gz", wantFormat: FormatApery, wantCompression: ".gz"},
		{path: "book.txt", wantErr: true},
		{path: "book.zst", wantErr: true},
		{path: "book", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, compression, err := ClassifyPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ClassifyPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrFormat) {
					t.Errorf("error = %v, want ErrFormat", err)
				}
				return
			}
			if format != tt.wantFormat {
				t.Errorf("format = %q, want %q", format, tt.wantFormat)
			}
			if compression != tt.wantCompression {
				t.Errorf("compression = %q, want %q", compression, tt.wantCompression)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("Apery"); err != nil || f != FormatApery {
		t.Errorf("ParseFormat(Apery) = %q, %v", f, err)
	}
	if _, err := ParseFormat("polyglot"); !errors.Is(err, ErrFormat) {
		t.Errorf("ParseFormat(polyglot) error = %v, want ErrFormat", err)
	}
}

func TestBook_Add(t *testing.T) {
	b := New(FormatYaneuraOu)
	b.Add("p1", Move{Move: "7g7f"})
	b.Add("p1", Move{Move: "2g2f"})
	if b.Add("p1", Move{Move: "7g7f", Score: Int(10)}) {
		t.Error("Add() stored a duplicate move")
	}
	b.Add("p2", Move{Move: "3c3d"})

	if b.EntryCount != 2 {
		t.Errorf("EntryCount = %d, want 2", b.EntryCount)
	}
	if b.DuplicateCount != 1 {
		t.Errorf("DuplicateCount = %d, want 1", b.DuplicateCount)
	}
	if b.MoveCount() != 3 {
		t.Errorf("MoveCount() = %d, want 3", b.MoveCount())
	}
	if got := b.Moves("p1")[0].Score; got != nil {
		t.Errorf("first move score = %v, want unset", *got)
	}
}

func TestBook_MovesIsCopy(t *testing.T) {
	b := New(FormatYaneuraOu)
	b.Add("p", Move{Move: "7g7f", Count: Int(3)})

	moves := b.Moves("p")
	*moves[0].Count = 99
	moves[0].Move = "x"

	got := b.Moves("p")[0]
	if got.Move != "7g7f" || *got.Count != 3 {
		t.Errorf("stored move changed through copy: %+v", got)
	}
	if missing := b.Moves("absent"); missing == nil || len(missing) != 0 {
		t.Errorf("Moves(absent) = %v, want empty slice", missing)
	}
}

func TestBook_Update(t *testing.T) {
	b := New(FormatYaneuraOu)
	if err := b.Update("p", Move{Move: "7g7f", Score: Int(10)}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := b.Update("p", Move{Move: "2g2f"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := b.Update("p", Move{Move: "7g7f", Score: Int(-5), Comment: "book"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	moves := b.Moves("p")
	if want := []string{"7g7f", "2g2f"}; !slices.Equal(moveNames(moves), want) {
		t.Fatalf("moves = %v, want %v", moveNames(moves), want)
	}
	if *moves[0].Score != -5 || moves[0].Comment != "book" {
		t.Errorf("replaced move = %+v", moves[0])
	}
	if b.EntryCount != 1 {
		t.Errorf("EntryCount = %d, want 1", b.EntryCount)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		move    Move
		wantErr error
	}{
		{name: "text accepts bare move", format: FormatYaneuraOu, move: Move{Move: "7g7f"}},
		{name: "empty notation", format: FormatYaneuraOu, move: Move{}, wantErr: ErrFormat},
		{name: "apery full move", format: FormatApery, move: Move{Move: "7g7f", Score: Int(1), Count: Int(2)}},
		{name: "apery missing score", format: FormatApery, move: Move{Move: "7g7f", Count: Int(2)}, wantErr: ErrCapability},
		{name: "apery missing count", format: FormatApery, move: Move{Move: "7g7f", Score: Int(2)}, wantErr: ErrCapability},
		{name: "apery reply move", format: FormatApery, move: Move{Move: "7g7f", ReplyMove: "3c3d", Score: Int(1), Count: Int(2)}, wantErr: ErrCapability},
		{name: "apery depth", format: FormatApery, move: Move{Move: "7g7f", Depth: Int(20), Score: Int(1), Count: Int(2)}, wantErr: ErrCapability},
		{name: "apery comment", format: FormatApery, move: Move{Move: "7g7f", Comment: "x", Score: Int(1), Count: Int(2)}, wantErr: ErrCapability},
		{name: "apery count overflow", format: FormatApery, move: Move{Move: "7g7f", Score: Int(1), Count: Int(70000)}, wantErr: ErrCapability},
		{name: "apery negative count", format: FormatApery, move: Move{Move: "7g7f", Score: Int(1), Count: Int(-1)}, wantErr: ErrCapability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.format, tt.move)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBook_UpdateRejectedLeavesBookUnchanged(t *testing.T) {
	b := New(FormatApery)
	err := b.Update("p", Move{Move: "7g7f", Score: Int(1)})
	if !errors.Is(err, ErrCapability) {
		t.Fatalf("Update() error = %v, want ErrCapability", err)
	}
	if b.EntryCount != 0 || len(b.Entries) != 0 {
		t.Errorf("book modified after rejected update: %d entries", len(b.Entries))
	}
}

func TestBook_Remove(t *testing.T) {
	b := New(FormatYaneuraOu)
	b.Add("p", Move{Move: "7g7f"})
	b.Add("p", Move{Move: "2g2f"})

	if !b.Remove("p", "7g7f") {
		t.Fatal("Remove() = false, want true")
	}
	if got := moveNames(b.Moves("p")); !slices.Equal(got, []string{"2g2f"}) {
		t.Errorf("moves = %v", got)
	}
	b.Remove("p", "9a9b")
	if got := len(b.Moves("p")); got != 1 {
		t.Errorf("removing an unknown move changed entry: %d moves", got)
	}
	if b.Remove("absent", "7g7f") {
		t.Error("Remove(absent) = true")
	}
}

func TestBook_Reorder(t *testing.T) {
	b := New(FormatYaneuraOu)
	for _, m := range []string{"2g2f", "7g7f", "5g5f", "2h7h", "3g3f"} {
		b.Add("p", Move{Move: m})
	}

	b.Reorder("p", "2g2f", 2)
	b.Reorder("p", "3g3f", 0)

	want := []string{"3g3f", "7g7f", "5g5f", "2g2f", "2h7h"}
	if got := moveNames(b.Moves("p")); !slices.Equal(got, want) {
		t.Errorf("moves = %v, want %v", got, want)
	}

	b.Reorder("p", "7g7f", 100)
	if got := moveNames(b.Moves("p")); got[len(got)-1] != "7g7f" {
		t.Errorf("clamped reorder = %v", got)
	}
	if b.Reorder("p", "9a9b", 0) {
		t.Error("Reorder() of unknown move = true")
	}
}

func TestBook_SortByCount(t *testing.T) {
	b := New(FormatYaneuraOu)
	b.Add("p", Move{Move: "a", Count: Int(1)})
	b.Add("p", Move{Move: "b"})
	b.Add("p", Move{Move: "c", Count: Int(5)})
	b.Add("p", Move{Move: "d", Count: Int(1)})

	b.SortByCount("p")

	want := []string{"c", "a", "d", "b"}
	if got := moveNames(b.Moves("p")); !slices.Equal(got, want) {
		t.Errorf("moves = %v, want %v", got, want)
	}
}

func TestBook_ObservePly(t *testing.T) {
	b := New(FormatYaneuraOu)
	b.Entry("p")
	b.ObservePly("p", 12, true)
	b.ObservePly("p", 20, false)
	b.ObservePly("p", 7, false)
	if got := b.Entries["p"].MinPly; got != 7 {
		t.Errorf("MinPly = %d, want 7", got)
	}
}

func TestBook_SortedKeys(t *testing.T) {
	b := New(FormatYaneuraOu)
	for _, k := range []string{"c", "a", "b"} {
		b.Entry(k)
	}
	got := b.SortedKeys(func(x, y string) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("SortedKeys() = %v", got)
	}
}
