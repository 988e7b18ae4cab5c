package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/discochess/openbook"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change the moves of one position in a book",
	Long: `Change the moves of one position and save the book in place.

The book is loaded into memory regardless of --threshold-mb.`,
}

var editSetCmd = &cobra.Command{
	Use:   "set BOOK POSITION MOVE",
	Short: "Add a move or replace the move with the same notation",
	Long: `Add a move to a position, or replace the move with the same notation.

Apery books require --score and --count and cannot store a reply, depth or
comment.

Examples:
  openbook edit set user_book1.db "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1" 7g7f --reply 3c3d --score 30`,
	Args: cobra.ExactArgs(3),
	RunE: runEditSet,
}

var editRemoveCmd = &cobra.Command{
	Use:   "remove BOOK POSITION MOVE",
	Short: "Remove a move from a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runEditRemove,
}

var editOrderCmd = &cobra.Command{
	Use:   "order BOOK POSITION MOVE INDEX",
	Short: "Move a move to a zero-based index within its position",
	Args:  cobra.ExactArgs(4),
	RunE:  runEditOrder,
}

var (
	editReply   string
	editScore   int
	editDepth   int
	editCount   int
	editComment string
)

func init() {
	editSetCmd.Flags().StringVar(&editReply, "reply", "", "expected reply move")
	editSetCmd.Flags().IntVar(&editScore, "score", 0, "evaluation from the mover's point of view")
	editSetCmd.Flags().IntVar(&editDepth, "depth", 0, "search depth of the score")
	editSetCmd.Flags().IntVar(&editCount, "count", 0, "number of times the move was played")
	editSetCmd.Flags().StringVar(&editComment, "comment", "", "free text comment")

	editCmd.AddCommand(editSetCmd, editRemoveCmd, editOrderCmd)
	rootCmd.AddCommand(editCmd)
}

func runEditSet(cmd *cobra.Command, args []string) error {
	move := openbook.Move{
		Move:      args[2],
		ReplyMove: editReply,
		Comment:   editComment,
	}
	flags := cmd.Flags()
	if flags.Changed("score") {
		move.Score = openbook.Int(editScore)
	}
	if flags.Changed("depth") {
		move.Depth = openbook.Int(editDepth)
	}
	if flags.Changed("count") {
		move.Count = openbook.Int(editCount)
	}
	return editBook(args[0], func(s *openbook.Store) error {
		return s.UpdateMove(args[1], move)
	})
}

func runEditRemove(cmd *cobra.Command, args []string) error {
	return editBook(args[0], func(s *openbook.Store) error {
		return s.RemoveMove(args[1], args[2])
	})
}

func runEditOrder(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[3], err)
	}
	return editBook(args[0], func(s *openbook.Store) error {
		return s.UpdateMoveOrder(args[1], args[2], index)
	})
}

// editBook loads path, applies fn and saves the book when it changed.
func editBook(path string, fn func(s *openbook.Store) error) error {
	s, err := openOrCreate(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s); err != nil {
		return err
	}
	if !s.IsUnsaved() {
		fmt.Println("Book unchanged.")
		return nil
	}
	if err := s.Save(context.Background(), path); err != nil {
		return fmt.Errorf("saving book: %w", err)
	}
	fmt.Printf("Saved %s\n", path)
	return nil
}
