// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-assessor/internal/segment"
	"github.com/pdiddy/paper-assessor/internal/store"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

var segmentCmd = &cobra.Command{
	Use:   "segment [file]",
	Short: "Split a document into per-page records and artifacts",
	Long: `Segment reads a source document (PDF, or Markdown with page markers),
splits it into pages, extracts per-page text, writes single-page
sub-artifacts, and persists the document and page records.

Passing --document-id reprocesses an existing document: the prior page set
is replaced as a whole, never partially.`,
	Args: cobra.ExactArgs(1),
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().String("owner", "", "owner id recorded on the document")
	segmentCmd.Flags().String("document-id", "", "existing document id to reprocess")
	segmentCmd.Flags().Int("workers", 0, "bounded page-extraction workers (default 4)")

	rootCmd.AddCommand(segmentCmd)
}

// openSource picks the Source implementation by file extension.
func openSource(path string) (segment.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return segment.NewPDFSource(path)
	default:
		return segment.NewMarkdownSource(path)
	}
}

func runSegment(cmd *cobra.Command, args []string) error {
	owner, _ := cmd.Flags().GetString("owner")
	docID, _ := cmd.Flags().GetString("document-id")
	workers, _ := cmd.Flags().GetInt("workers")
	dir := dataDir(cmd)

	src, err := openSource(args[0])
	if err != nil {
		return err
	}

	s, err := store.Open(types.StoreConfig{DataDir: dir})
	if err != nil {
		return err
	}
	defer s.Close()

	seg := segment.New(s, types.SegmentationConfig{DataDir: dir, Workers: workers})
	result, err := seg.Segment(context.Background(), src, owner, docID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "document %s: %d page(s)", result.Document.ID, result.Document.PageCount)
	if result.FailedPages > 0 {
		fmt.Fprintf(os.Stdout, ", %d failed extraction(s)", result.FailedPages)
	}
	fmt.Fprintln(os.Stdout)
	for _, p := range result.Pages {
		fmt.Fprintf(os.Stdout, "  page %3d  %6d chars  %s\n", p.PageNumber, p.CharCount, p.ID)
	}
	return nil
}
