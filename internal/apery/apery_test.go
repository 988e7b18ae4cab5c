package apery

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/discochess/openbook/internal/book"
	"github.com/discochess/openbook/internal/movecodec/usimove"
	"github.com/discochess/openbook/internal/poskey"
)

func sampleBook(t *testing.T) *book.Book {
	t.Helper()
	b := book.New(book.FormatApery)
	add := func(hash uint64, move string, score, count int) {
		if err := b.Update(poskey.HashKey(hash), book.Move{Move: move, Score: book.Int(score), Count: book.Int(count)}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}
	add(0x0100000000000000, "7g7f", 10, 3)
	add(0x0100000000000000, "2g2f", -20, 1)
	add(0x00000000000000ff, "3c3d", 5, 2)
	add(0x0200000000000001, "P*5e", 0, 65535)
	add(0x0000000000000001, "8h2b+", -2147483648, 0)
	return b
}

func TestCompareKeys(t *testing.T) {
	low := []byte{0xff, 0, 0, 0, 0, 0, 0, 0}
	high := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	if CompareKeys(low, high) >= 0 {
		t.Error("CompareKeys() should order by the last byte first")
	}
	if CompareKeys(high, low) <= 0 {
		t.Error("CompareKeys() not antisymmetric")
	}
	if CompareKeys(low, low) != 0 {
		t.Error("CompareKeys() of equal keys != 0")
	}
}

func TestStoreLoad(t *testing.T) {
	codec := usimove.New()
	b := sampleBook(t)

	var buf bytes.Buffer
	if err := Store(b, &buf, codec); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if buf.Len() != 5*RecordSize {
		t.Fatalf("Store() wrote %d bytes, want %d", buf.Len(), 5*RecordSize)
	}

	readers := map[string]func([]byte) io.Reader{
		"whole":    func(p []byte) io.Reader { return bytes.NewReader(p) },
		"one byte": func(p []byte) io.Reader { return iotest.OneByteReader(bytes.NewReader(p)) },
		"half":     func(p []byte) io.Reader { return iotest.HalfReader(bytes.NewReader(p)) },
	}
	for name, newReader := range readers {
		t.Run(name, func(t *testing.T) {
			got, err := Load(newReader(buf.Bytes()), codec)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.EntryCount != 4 || got.DuplicateCount != 0 {
				t.Errorf("EntryCount = %d, DuplicateCount = %d", got.EntryCount, got.DuplicateCount)
			}
			moves := got.Moves(poskey.HashKey(0x0100000000000000))
			if len(moves) != 2 || moves[0].Move != "7g7f" || *moves[0].Score != 10 || *moves[0].Count != 3 {
				t.Errorf("moves = %+v", moves)
			}
			if moves[1].Move != "2g2f" || *moves[1].Score != -20 {
				t.Errorf("second move = %+v", moves[1])
			}
			drop := got.Moves(poskey.HashKey(0x0200000000000001))
			if len(drop) != 1 || drop[0].Move != "P*5e" || *drop[0].Count != 65535 {
				t.Errorf("drop moves = %+v", drop)
			}
			promo := got.Moves(poskey.HashKey(1))
			if len(promo) != 1 || *promo[0].Score != -2147483648 {
				t.Errorf("promotion moves = %+v", promo)
			}
		})
	}
}

func TestStore_SortOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := Store(sampleBook(t), &buf, usimove.New()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	data := buf.Bytes()
	for off := RecordSize; off < len(data); off += RecordSize {
		prev := data[off-RecordSize : off-RecordSize+KeySize]
		cur := data[off : off+KeySize]
		if CompareKeys(prev, cur) > 0 {
			t.Errorf("record at %d out of order", off)
		}
	}
}

func TestStore_ClampsAndDefaults(t *testing.T) {
	b := book.New(book.FormatApery)
	key := poskey.HashKey(42)
	b.Entry(key).Moves = []book.Move{{Move: "7g7f", Count: book.Int(70000)}}

	var buf bytes.Buffer
	if err := Store(b, &buf, usimove.New()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	got, err := Load(&buf, usimove.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	m := got.Moves(key)[0]
	if *m.Count != book.MaxAperyCount || *m.Score != 0 {
		t.Errorf("move = count %d score %d, want clamped count and zero score", *m.Count, *m.Score)
	}
}

func TestLoad_Duplicates(t *testing.T) {
	codec := usimove.New()
	b := book.New(book.FormatApery)
	key := poskey.HashKey(7)
	b.Entry(key).Moves = []book.Move{
		{Move: "7g7f", Score: book.Int(1), Count: book.Int(1)},
		{Move: "7g7f", Score: book.Int(2), Count: book.Int(2)},
	}
	var buf bytes.Buffer
	if err := Store(b, &buf, codec); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	got, err := Load(&buf, codec)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.DuplicateCount != 1 {
		t.Errorf("DuplicateCount = %d, want 1", got.DuplicateCount)
	}
	if m := got.Moves(key); len(m) != 1 || *m[0].Score != 1 {
		t.Errorf("moves = %+v, want first occurrence kept", m)
	}
}

func TestLoad_TrailingBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := Store(sampleBook(t), &buf, usimove.New()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	buf.Write([]byte{1, 2, 3})
	_, err := Load(&buf, usimove.New())
	if !errors.Is(err, book.ErrFormat) {
		t.Errorf("Load() error = %v, want ErrFormat", err)
	}
}

func TestLoad_ReadError(t *testing.T) {
	_, err := Load(iotest.ErrReader(errors.New("disk gone")), usimove.New())
	if !errors.Is(err, book.ErrIO) {
		t.Errorf("Load() error = %v, want ErrIO", err)
	}
}

func TestLoad_ReadErrorAfterRecords(t *testing.T) {
	var buf bytes.Buffer
	if err := Store(sampleBook(t), &buf, usimove.New()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	r := io.MultiReader(bytes.NewReader(buf.Bytes()[:2*RecordSize]), iotest.ErrReader(errors.New("disk gone")))
	_, err := Load(r, usimove.New())
	if !errors.Is(err, book.ErrIO) {
		t.Fatalf("Load() error = %v, want ErrIO", err)
	}
	if !strings.Contains(err.Error(), "after 2 records") {
		t.Errorf("Load() error = %q, want record count", err)
	}
}

func TestDecoder_SplitRecord(t *testing.T) {
	var buf bytes.Buffer
	if err := Store(sampleBook(t), &buf, usimove.New()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	data := buf.Bytes()

	d := NewDecoder(usimove.New())
	steps := []struct {
		end  int
		want int
	}{
		{end: RecordSize / 2, want: 0},
		{end: RecordSize + 3, want: 1},
		{end: 2 * RecordSize, want: 2},
		{end: len(data), want: 5},
	}
	start := 0
	for _, step := range steps {
		if _, err := d.Write(data[start:step.end]); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		start = step.end
		if got := d.Records(); got != step.want {
			t.Errorf("Records() after %d bytes = %d, want %d", step.end, got, step.want)
		}
	}
	b, err := d.Close()
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if b.MoveCount() != 5 {
		t.Errorf("MoveCount() = %d, want 5", b.MoveCount())
	}
}

func TestLoad_BadMoveCode(t *testing.T) {
	rec := make([]byte, RecordSize)
	rec[8], rec[9] = 0xff, 0xff
	_, err := Load(bytes.NewReader(rec), usimove.New())
	if !errors.Is(err, book.ErrCodec) {
		t.Errorf("Load() error = %v, want ErrCodec", err)
	}
}

func TestSearch(t *testing.T) {
	codec := usimove.New()
	var buf bytes.Buffer
	if err := Store(sampleBook(t), &buf, codec); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	r := bytes.NewReader(buf.Bytes())
	size := int64(buf.Len())

	moves, err := Search(r, size, poskey.HashKey(0x0100000000000000), codec)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	names := []string{}
	for _, m := range moves {
		names = append(names, m.Move)
	}
	if !slices.Equal(names, []string{"7g7f", "2g2f"}) {
		t.Errorf("Search() = %v", names)
	}

	moves, err = Search(r, size, poskey.HashKey(0x0300000000000000), codec)
	if err != nil || moves == nil || len(moves) != 0 {
		t.Errorf("Search(absent) = %v, %v, want empty slice", moves, err)
	}

	if _, err := Search(r, size-1, poskey.HashKey(1), codec); !errors.Is(err, book.ErrFormat) {
		t.Errorf("Search() with bad size error = %v, want ErrFormat", err)
	}
}
