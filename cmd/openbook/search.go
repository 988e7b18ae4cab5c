package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/discochess/openbook"
)

var searchCmd = &cobra.Command{
	Use:   "search BOOK POSITION",
	Short: "List the book moves for a position",
	Long: `List the moves a book records for a position, in book order.

POSITION is the position string used as the book key: an SFEN for shogi
books or a FEN for chess books.

Examples:
  # Initial shogi position
  openbook search user_book1.db "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

  # Chess book with UCI moves
  openbook search --moves uci book.bin "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

var (
	showTiming bool
	onlyScored bool
)

func init() {
	searchCmd.Flags().BoolVar(&showTiming, "timing", false, "show search timing")
	searchCmd.Flags().BoolVar(&onlyScored, "scored", false, "only list moves that carry a score")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	path, position := args[0], args[1]

	format, err := openbook.FormatOf(path)
	if err != nil {
		return err
	}
	s, err := newStore(format)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	mode, err := s.Open(ctx, path, &openbook.LoadOptions{OnTheFlyThresholdMB: thresholdMB})
	if err != nil {
		return fmt.Errorf("opening book: %w", err)
	}

	start := time.Now()
	moves, err := s.Search(ctx, position)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	elapsed := time.Since(start)
	if onlyScored {
		moves = scoredMoves(moves)
	}

	if outputJSON {
		return printMovesJSON(position, mode, moves, elapsed)
	}
	printMovesText(position, mode, moves, elapsed)
	return nil
}

// scoredMoves keeps the moves with an evaluation, in book order.
func scoredMoves(moves []openbook.Move) []openbook.Move {
	out := make([]openbook.Move, 0, len(moves))
	for _, m := range moves {
		if m.HasScore() {
			out = append(out, m)
		}
	}
	return out
}

func printMovesText(position string, mode openbook.Mode, moves []openbook.Move, elapsed time.Duration) {
	fmt.Printf("Position: %s\n", position)
	fmt.Printf("Mode:     %s\n", mode)
	if len(moves) == 0 {
		fmt.Println("No book moves.")
	}
	for i, m := range moves {
		fmt.Printf("%3d. %s\n", i+1, m)
		if m.Comment != "" {
			fmt.Printf("     # %s\n", m.Comment)
		}
	}
	if showTiming {
		fmt.Printf("Time:     %s\n", elapsed)
	}
}

type moveJSON struct {
	Move    string `json:"move"`
	Reply   string `json:"reply,omitempty"`
	Score   *int   `json:"score,omitempty"`
	Depth   *int   `json:"depth,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type searchJSON struct {
	Position  string     `json:"position"`
	Mode      string     `json:"mode"`
	Moves     []moveJSON `json:"moves"`
	ElapsedMS *int64     `json:"elapsed_ms,omitempty"`
}

func printMovesJSON(position string, mode openbook.Mode, moves []openbook.Move, elapsed time.Duration) error {
	out := searchJSON{
		Position: position,
		Mode:     string(mode),
		Moves:    make([]moveJSON, len(moves)),
	}
	for i, m := range moves {
		out.Moves[i] = moveJSON{
			Move:    m.Move,
			Reply:   m.ReplyMove,
			Score:   m.Score,
			Depth:   m.Depth,
			Count:   m.Count,
			Comment: m.Comment,
		}
	}
	if showTiming {
		ms := elapsed.Milliseconds()
		out.ElapsedMS = &ms
	}
	return writeJSON(out)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
