package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/openbook"
)

var statsCmd = &cobra.Command{
	Use:   "stats BOOK",
	Short: "Show statistics about a book file",
	Long: `Display statistics about a book file including:
- Format and how the book is held
- File size
- Number of positions, moves and discarded duplicate moves (in-memory books)`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

type statsJSON struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	Mode       string `json:"mode"`
	Size       int64  `json:"size"`
	Entries    int    `json:"entries"`
	Moves      int    `json:"moves"`
	Duplicates int    `json:"duplicates"`
}

func runStats(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := openbook.FormatOf(path)
	if err != nil {
		return err
	}
	s, err := newStore(format)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer s.Close()

	if _, err := s.Open(context.Background(), path, &openbook.LoadOptions{OnTheFlyThresholdMB: thresholdMB}); err != nil {
		return fmt.Errorf("opening book: %w", err)
	}
	st := s.Stats()
	size, err := fileSize(path)
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(statsJSON{
			Path:       st.Path,
			Format:     st.Format.String(),
			Mode:       string(st.Mode),
			Size:       size,
			Entries:    st.Entries,
			Moves:      st.Moves,
			Duplicates: st.Duplicates,
		})
	}

	fmt.Printf("Book:       %s\n", st.Path)
	fmt.Printf("Format:     %s\n", st.Format)
	fmt.Printf("Mode:       %s\n", st.Mode)
	fmt.Printf("Size:       %s\n", formatBytes(size))
	if st.Mode == openbook.ModeOnTheFly {
		fmt.Println("Entries are not counted for on-the-fly books; lower --threshold-mb to load it.")
		return nil
	}
	fmt.Printf("Positions:  %d\n", st.Entries)
	fmt.Printf("Moves:      %d\n", st.Moves)
	fmt.Printf("Duplicates: %d\n", st.Duplicates)
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return info.Size(), nil
}
