// Package main provides the entry point for the Bobby CV transformer CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cv_transformer",
	Short: "Bobby CV transformer",
	Long:  "Transforms consultant CVs (PDF or DOCX) into branded Word documents via the Bobby parsing service, or renders and validates structured CV documents offline.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
