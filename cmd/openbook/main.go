// Package main provides the openbook CLI for searching, editing, importing
// and distributing opening book files.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
