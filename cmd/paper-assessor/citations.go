// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-assessor/internal/citations"
	"github.com/pdiddy/paper-assessor/internal/store"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

var citationsCmd = &cobra.Command{
	Use:   "citations [file]",
	Short: "Analyze citation structure of a document",
	Long: `Citations locates the references section, counts reference entries,
extracts in-text citations, and matches the two. It reads a text or
Markdown file directly, or a stored document's pages with --document.

Author-year citations are reported but never matched against the
reference list; no reliable ordinal correspondence exists for that style.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCitations,
}

func init() {
	citationsCmd.Flags().String("document", "", "analyze a stored document instead of a file")
	citationsCmd.Flags().Bool("json", false, "print the full report as JSON")
	citationsCmd.Flags().Float64("tail-window", 0, "fraction of the document tail searched for a references heading")
	citationsCmd.Flags().Int("sanity-ceiling", 0, "largest believable reference count before strict re-parse")

	rootCmd.AddCommand(citationsCmd)
}

func runCitations(cmd *cobra.Command, args []string) error {
	documentID, _ := cmd.Flags().GetString("document")
	asJSON, _ := cmd.Flags().GetBool("json")
	tailWindow, _ := cmd.Flags().GetFloat64("tail-window")
	sanityCeiling, _ := cmd.Flags().GetInt("sanity-ceiling")

	var text string
	switch {
	case documentID != "":
		s, err := store.Open(types.StoreConfig{DataDir: dataDir(cmd)})
		if err != nil {
			return err
		}
		defer s.Close()
		pages, err := s.GetPages(context.Background(), documentID)
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			return fmt.Errorf("document %s has no pages; run segment first", documentID)
		}
		texts := make([]string, len(pages))
		for i, p := range pages {
			texts[i] = p.Text
		}
		text = strings.Join(texts, "\n")
	case len(args) == 1:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		text = string(data)
	default:
		return fmt.Errorf("provide a file or --document")
	}

	params := citations.DefaultParams()
	params.TailWindow = tailWindow
	params.SanityCeiling = sanityCeiling
	report := citations.New(params).Analyze(text)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.MissingReferences {
		fmt.Fprintln(os.Stdout, "no references section found")
		return nil
	}
	fmt.Fprintf(os.Stdout, "style:       %s\n", report.Style)
	fmt.Fprintf(os.Stdout, "references:  %d\n", report.ReferenceCount)
	fmt.Fprintf(os.Stdout, "in-text:     %d\n", report.InTextCount)
	fmt.Fprintf(os.Stdout, "matched:     %d\n", report.MatchedCount)
	fmt.Fprintf(os.Stdout, "unmatched:   %d\n", report.UnmatchedCount)
	fmt.Fprintf(os.Stdout, "uncited:     %d\n", report.UncitedCount)
	return nil
}
