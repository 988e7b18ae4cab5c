// Package pgnrecord parses chess games in PGN.
//
// Positions are keyed by FEN without the move counters and moves are
// written in UCI notation.
package pgnrecord

import (
	"fmt"
	"io"

	"github.com/notnil/chess"

	"github.com/discochess/openbook/internal/fen"
	"github.com/discochess/openbook/internal/record"
)

// Parser implements record.Parser for PGN files.
type Parser struct{}

var _ record.Parser = (*Parser)(nil)

// New returns a PGN parser.
func New() *Parser {
	return &Parser{}
}

// Name returns "pgn".
func (p *Parser) Name() string {
	return "pgn"
}

// Extensions returns the PGN file extension.
func (p *Parser) Extensions() []string {
	return []string{".pgn"}
}

// Parse reads every game in r.
func (p *Parser) Parse(r io.Reader) ([]*record.Record, error) {
	scanner := chess.NewScanner(r)
	var records []*record.Record
	for scanner.Scan() {
		rec, err := convert(scanner.Next())
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading PGN: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no games found")
	}
	return records, nil
}

func convert(game *chess.Game) (*record.Record, error) {
	rec := &record.Record{}
	if tag := game.GetTagPair("White"); tag != nil {
		rec.Players[record.First] = tag.Value
	}
	if tag := game.GetTagPair("Black"); tag != nil {
		rec.Players[record.Second] = tag.Value
	}

	positions := game.Positions()
	moves := game.Moves()
	if len(positions) < len(moves) {
		return nil, fmt.Errorf("%d positions for %d moves", len(positions), len(moves))
	}
	rec.Plies = make([]record.Ply, 0, len(moves))
	for i, m := range moves {
		pos, err := fen.Parse(positions[i].String())
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		color := record.First
		if !pos.WhiteToMove {
			color = record.Second
		}
		rec.Plies = append(rec.Plies, record.Ply{
			Number:   i + 1,
			Color:    color,
			Position: pos.Key(),
			Move:     m.String(),
		})
	}
	return rec, nil
}
