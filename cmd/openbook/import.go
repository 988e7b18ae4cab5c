package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/discochess/openbook"
)

var importCmd = &cobra.Command{
	Use:   "import BOOK",
	Short: "Add the moves of game records to a book",
	Long: `Read game records and add every selected move to a book.

Moves already in the book have their count raised; new moves are added
with a count of 1. Each touched position is then ordered by count. The
book is created when it does not exist.

Supported records: shogi CSA (.csa) and chess PGN (.pgn).

Examples:
  # Import one game
  openbook import user_book1.db --file ./game.csa

  # Import the first 30 plies of every game played by "hanako"
  openbook import user_book1.db --dir ./games --max-ply 30 --player name --name hanako

  # Import only 2024 games in nested directories
  openbook import book.bin --dir ./games --pattern "**/2024-*.csa"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importFile    string
	importDir     string
	importPattern string
	importMinPly  int
	importMaxPly  int
	importPlayer  string
	importName    string
	importOutput  string
)

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "game record file to import")
	importCmd.Flags().StringVar(&importDir, "dir", "", "directory of game records to import")
	importCmd.Flags().StringVar(&importPattern, "pattern", "", "glob restricting --dir imports, relative to the directory")
	importCmd.Flags().IntVar(&importMinPly, "min-ply", openbook.DefaultImportSettings().MinPly, "first ply to import")
	importCmd.Flags().IntVar(&importMaxPly, "max-ply", openbook.DefaultImportSettings().MaxPly, "last ply to import")
	importCmd.Flags().StringVar(&importPlayer, "player", string(openbook.PlayerBoth), "whose moves to import: both, first, second, name")
	importCmd.Flags().StringVar(&importName, "name", "", "player name for --player name")
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "write the book here instead of BOOK")
	importCmd.MarkFlagsMutuallyExclusive("file", "dir")
	importCmd.MarkFlagsOneRequired("file", "dir")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	output := importOutput
	if output == "" {
		output = path
	}

	settings := openbook.DefaultImportSettings()
	settings.SourceRecordFile = importFile
	if importDir != "" {
		settings.SourceType = openbook.SourceDirectory
		settings.SourceDirectory = importDir
		settings.Pattern = importPattern
	}
	settings.MinPly = importMinPly
	settings.MaxPly = importMaxPly
	settings.PlayerCriteria = openbook.PlayerCriteria(importPlayer)
	settings.PlayerName = importName

	s, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer s.Close()

	// Setup context with cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Println("\nInterrupted, saving the games imported so far...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Printf("Importing into %s\n", output)
	summary, err := s.Import(ctx, settings, func(p float64) {
		fmt.Printf("\r[Import] %5.1f%%", p*100)
	})
	fmt.Println()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("  Files:      %d imported, %d failed\n", summary.SuccessFileCount, summary.ErrorFileCount)
	fmt.Printf("  New moves:  %d\n", summary.EntryCount)
	fmt.Printf("  Duplicates: %d\n", summary.DuplicateCount)
	if summary.RejectedCount > 0 {
		fmt.Printf("  Rejected:   %d (not encodable in %s)\n", summary.RejectedCount, s.Format())
	}

	if !s.IsUnsaved() {
		fmt.Println("Nothing to save.")
		return err
	}
	if err := s.Save(context.Background(), output); err != nil {
		return fmt.Errorf("saving book: %w", err)
	}
	fmt.Printf("Saved %s\n", output)
	return err
}

// openOrCreate loads the book at path into memory, or starts an empty
// book of the matching format when the file does not exist.
func openOrCreate(path string) (*openbook.Store, error) {
	format, err := openbook.FormatOf(path)
	if err != nil {
		return nil, err
	}
	s, err := newStore(format)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	if _, err := s.Open(context.Background(), path, nil); err != nil {
		if !errors.Is(err, openbook.ErrNotFound) {
			s.Close()
			return nil, fmt.Errorf("opening book: %w", err)
		}
		logger.Sugar().Infof("creating new %s book %s", format, path)
	}
	return s, nil
}
