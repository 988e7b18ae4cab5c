package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/openbook/internal/blob"
	"github.com/discochess/openbook/internal/blob/bloburi"
)

var pullCmd = &cobra.Command{
	Use:   "pull URI PATH",
	Short: "Download a book file from a local directory, GCS or S3",
	Long: `Download a book file and replace PATH atomically.

URI is a local path, gs://bucket/key or s3://bucket/key. Cloud credentials
come from the environment as for the gcloud and aws tools.

Examples:
  openbook pull gs://my-bucket/books/standard.bin ./standard.bin
  openbook pull s3://my-bucket/books/user_book1.db.zst ./user_book1.db.zst`,
	Args: cobra.ExactArgs(2),
	RunE: runPull,
}

var pushCmd = &cobra.Command{
	Use:   "push PATH URI",
	Short: "Upload a book file to a local directory, GCS or S3",
	Long: `Upload a book file. URI has the same forms as for pull.

Examples:
  openbook push ./standard.bin gs://my-bucket/books/standard.bin`,
	Args: cobra.ExactArgs(2),
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pullCmd, pushCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	uri, path := args[0], args[1]
	ctx := cmd.Context()

	store, key, err := bloburi.Open(ctx, uri)
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	n, err := blob.Pull(ctx, store, key, path)
	if err != nil {
		return err
	}
	fmt.Printf("[Pull] %s -> %s (%s in %s)\n", uri, path, formatBytes(n), time.Since(start).Round(time.Millisecond))
	return nil
}

func runPush(cmd *cobra.Command, args []string) error {
	path, uri := args[0], args[1]
	ctx := cmd.Context()

	size, err := fileSize(path)
	if err != nil {
		return err
	}
	store, key, err := bloburi.Open(ctx, uri)
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	if err := blob.Push(ctx, store, path, key); err != nil {
		return err
	}
	fmt.Printf("[Push] %s -> %s (%s in %s)\n", path, uri, formatBytes(size), time.Since(start).Round(time.Millisecond))
	return nil
}
