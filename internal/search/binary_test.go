package search

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildRecords lays out 4-byte records: a 2-byte big-endian key and a
// 2-byte payload.
func buildRecords(keys []uint16) []byte {
	var data []byte
	for i, k := range keys {
		data = binary.BigEndian.AppendUint16(data, k)
		data = binary.BigEndian.AppendUint16(data, uint16(i))
	}
	return data
}

func key16(k uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, k)
}

func TestRecords(t *testing.T) {
	keys := []uint16{1, 3, 3, 3, 5, 8, 8, 13, 21, 21, 21, 21, 34}
	data := buildRecords(keys)

	tests := []struct {
		name      string
		key       uint16
		wantFirst uint16
		wantCount int
		wantErr   error
	}{
		{name: "first record", key: 1, wantFirst: 0, wantCount: 1},
		{name: "run in the middle", key: 3, wantFirst: 1, wantCount: 3},
		{name: "single", key: 5, wantFirst: 4, wantCount: 1},
		{name: "pair", key: 8, wantFirst: 5, wantCount: 2},
		{name: "long run", key: 21, wantFirst: 8, wantCount: 4},
		{name: "last record", key: 34, wantFirst: 12, wantCount: 1},
		{name: "below range", key: 0, wantErr: ErrNotFound},
		{name: "gap", key: 4, wantErr: ErrNotFound},
		{name: "above range", key: 99, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Records(bytes.NewReader(data), int64(len(data)), 4, 2, key16(tt.key), bytes.Compare)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Records() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Records() error = %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("Records() returned %d records, want %d", len(got), tt.wantCount)
			}
			for i, rec := range got {
				if k := binary.BigEndian.Uint16(rec); k != tt.key {
					t.Errorf("record %d key = %d, want %d", i, k, tt.key)
				}
				if idx := binary.BigEndian.Uint16(rec[2:]); idx != tt.wantFirst+uint16(i) {
					t.Errorf("record %d index = %d, want %d", i, idx, tt.wantFirst+uint16(i))
				}
			}
		})
	}
}

func TestRecords_AllEqual(t *testing.T) {
	data := buildRecords([]uint16{7, 7, 7, 7, 7, 7, 7})
	got, err := Records(bytes.NewReader(data), int64(len(data)), 4, 2, key16(7), bytes.Compare)
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(got) != 7 {
		t.Errorf("Records() returned %d records, want 7", len(got))
	}
}

func TestRecords_Empty(t *testing.T) {
	_, err := Records(bytes.NewReader(nil), 0, 4, 2, key16(1), bytes.Compare)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Records() error = %v, want ErrNotFound", err)
	}
}

func TestRecords_InvalidLayout(t *testing.T) {
	if _, err := Records(bytes.NewReader(nil), 0, 4, 2, []byte{1}, bytes.Compare); err == nil {
		t.Error("Records() accepted a key of the wrong size")
	}
}

func TestRecords_EveryKey(t *testing.T) {
	// Exhaustive check over a larger file with varied run lengths.
	var keys []uint16
	for k := uint16(0); k < 300; k += 2 {
		for n := 0; n < int(k%5)+1; n++ {
			keys = append(keys, k)
		}
	}
	data := buildRecords(keys)
	r := bytes.NewReader(data)

	for k := uint16(0); k < 302; k++ {
		want := 0
		for _, kk := range keys {
			if kk == k {
				want++
			}
		}
		got, err := Records(r, int64(len(data)), 4, 2, key16(k), bytes.Compare)
		if want == 0 {
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("key %d: error = %v, want ErrNotFound", k, err)
			}
			continue
		}
		if err != nil || len(got) != want {
			t.Errorf("key %d: got %d records (err %v), want %d", k, len(got), err, want)
		}
	}
}

func BenchmarkRecords(b *testing.B) {
	keys := make([]uint16, 0, 1<<15)
	for k := 0; k < 1<<15; k++ {
		keys = append(keys, uint16(k))
	}
	data := buildRecords(keys)
	r := bytes.NewReader(data)
	key := key16(12345)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Records(r, int64(len(data)), 4, 2, key, bytes.Compare)
	}
}
