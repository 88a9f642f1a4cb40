package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobbyapp/cv-transformer/internal/observability"
	"github.com/bobbyapp/cv-transformer/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a structured CV document against the schema",
	Long:  "Checks a CV document JSON file against the document schema and prints every violation with its path.",
	RunE:  runValidate,
}

var validateInput string

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "in", "i", "", "Path to CV document JSON file (required)")

	if err := validateCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(validateInput)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)

	doc, err := schemas.Validate(raw)
	if err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			printer.PrintValidationReport(ve)
			return fmt.Errorf("validation found %d violation(s)", len(ve.Errors))
		}
		return err
	}

	printer.PrintValidationReport(nil)
	printer.PrintDocumentSummary(doc)
	return nil
}
