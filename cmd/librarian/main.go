// Package main provides the librarian CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "librarian",
	Short: "Book recommendations over a curated corpus",
	Long: `librarian recommends books from a curated corpus.

A request passes a moderation gate, retrieves semantically similar
books, and lets a chat model pick one grounded candidate. The chosen
title is returned together with its full synopsis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}
