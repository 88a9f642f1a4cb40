package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bobbyapp/cv-transformer/internal/observability"
	"github.com/bobbyapp/cv-transformer/internal/rendering"
	"github.com/bobbyapp/cv-transformer/internal/schemas"
	"github.com/bobbyapp/cv-transformer/internal/templates"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a structured CV document to a Word file offline",
	Long:  "Validates a structured CV document (JSON) against the schema and renders it with the selected template, without contacting the parsing service.",
	RunE:  runRender,
}

var (
	renderInput    string
	renderOutput   string
	renderTemplate string
	renderLogo     string
)

func init() {
	renderCmd.Flags().StringVarP(&renderInput, "in", "i", "", "Path to CV document JSON file (required)")
	renderCmd.Flags().StringVarP(&renderOutput, "out", "o", "", "Path to output .docx file (defaults next to the input)")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", templates.DefaultName, "Template name")
	renderCmd.Flags().StringVar(&renderLogo, "logo", "", "Path to a PNG logo file (optional)")

	if err := renderCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(renderCmd)
}

func runRender(_ *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(renderInput)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)

	doc, err := schemas.Validate(raw)
	if err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			printer.PrintValidationReport(ve)
			return fmt.Errorf("document failed schema validation (%d violations)", len(ve.Errors))
		}
		return err
	}

	cfg, err := templates.Builtin().Get(renderTemplate)
	if err != nil {
		return err
	}

	var logo []byte
	if renderLogo != "" {
		logo, err = os.ReadFile(renderLogo)
		if err != nil {
			return fmt.Errorf("failed to read logo: %w", err)
		}
	}

	binary, err := rendering.Render(doc, cfg, logo)
	if err != nil {
		return fmt.Errorf("rendering failed: %w", err)
	}

	out := renderOutput
	if out == "" {
		stem := strings.TrimSuffix(renderInput, filepath.Ext(renderInput))
		out = fmt.Sprintf("%s_%s.docx", stem, cfg.Name)
	}
	if err := os.WriteFile(out, binary, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	printer.PrintDocumentSummary(doc)
	fmt.Fprintf(os.Stdout, "Output: %s (%d bytes)\n", out, len(binary))
	return nil
}
