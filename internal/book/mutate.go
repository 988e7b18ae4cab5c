package book

import (
	"math"
	"slices"
)

// MaxAperyCount is the largest usage count a format-B record can hold.
const MaxAperyCount = math.MaxUint16

// Validate checks that move can be stored in a book of format f.
// Format B records carry only move, count and score, and both numbers
// are mandatory.
func Validate(f Format, move Move) error {
	if move.Move == "" {
		return formatErrorf("empty move notation")
	}
	if f != FormatApery {
		return nil
	}
	switch {
	case move.Score == nil:
		return capabilityErrorf("apery book requires a score")
	case move.Count == nil:
		return capabilityErrorf("apery book requires a count")
	case move.ReplyMove != "":
		return capabilityErrorf("apery book cannot store a reply move")
	case move.Depth != nil:
		return capabilityErrorf("apery book cannot store a depth")
	case move.Comment != "":
		return capabilityErrorf("apery book cannot store a comment")
	case *move.Count < 0 || *move.Count > MaxAperyCount:
		return capabilityErrorf("count %d out of range for apery book", *move.Count)
	case *move.Score < math.MinInt32 || *move.Score > math.MaxInt32:
		return capabilityErrorf("score %d out of range for apery book", *move.Score)
	}
	return nil
}

// Update stores move under key. A move with the same notation is
// replaced in place; otherwise the move is appended. Nothing changes
// when validation fails.
func (b *Book) Update(key string, move Move) error {
	if err := Validate(b.Format, move); err != nil {
		return err
	}
	move = move.Clone()
	entry := b.Entry(key)
	if i := entry.IndexOf(move.Move); i >= 0 {
		entry.Moves[i] = move
		return nil
	}
	entry.Moves = append(entry.Moves, move)
	return nil
}

// Remove deletes the move with the given notation from key's entry.
// It reports whether the entry exists.
func (b *Book) Remove(key, move string) bool {
	entry, ok := b.Entries[key]
	if !ok {
		return false
	}
	entry.Moves = slices.DeleteFunc(entry.Moves, func(m Move) bool { return m.Move == move })
	return true
}

// Reorder moves the named move to index. Out-of-range indices insert at
// the nearest end. It reports whether the move was found.
func (b *Book) Reorder(key, move string, index int) bool {
	entry, ok := b.Entries[key]
	if !ok {
		return false
	}
	i := entry.IndexOf(move)
	if i < 0 {
		return false
	}
	m := entry.Moves[i]
	entry.Moves = slices.Delete(entry.Moves, i, i+1)
	index = max(0, min(index, len(entry.Moves)))
	entry.Moves = slices.Insert(entry.Moves, index, m)
	return true
}

// SortByCount orders key's moves by descending usage count. Unset counts
// sort as zero and ties keep their relative order.
func (b *Book) SortByCount(key string) bool {
	entry, ok := b.Entries[key]
	if !ok {
		return false
	}
	slices.SortStableFunc(entry.Moves, func(x, y Move) int {
		return y.CountOrZero() - x.CountOrZero()
	})
	return true
}

// ObservePly lowers the entry's MinPly to ply. Entries that have never
// been observed take ply directly.
func (b *Book) ObservePly(key string, ply int, fresh bool) {
	entry, ok := b.Entries[key]
	if !ok {
		return
	}
	if fresh || ply < entry.MinPly {
		entry.MinPly = ply
	}
}
