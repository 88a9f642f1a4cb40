package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobbyapp/cv-transformer/internal/templates"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available document templates",
	RunE:  runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(_ *cobra.Command, _ []string) error {
	registry := templates.Builtin()
	for _, name := range registry.Names() {
		marker := ""
		if name == templates.DefaultName {
			marker = " (default)"
		}
		fmt.Fprintf(os.Stdout, "%s%s\n", name, marker)
	}
	return nil
}
