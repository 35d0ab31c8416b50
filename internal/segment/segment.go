// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-assessor/internal/store"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

const (
	pagesDir       = "pages"
	defaultWorkers = 4
)

// Segmenter splits source documents into pages and persists them.
type Segmenter struct {
	store   *store.Store
	cfg     types.SegmentationConfig
	workers int
}

// New returns a Segmenter writing through the given store.
func New(s *store.Store, cfg types.SegmentationConfig) *Segmenter {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Segmenter{store: s, cfg: cfg, workers: workers}
}

// Result holds the persisted outcome of one segmentation run.
type Result struct {
	Document types.Document
	Pages    []types.Page

	// FailedPages counts pages whose text extraction failed. Such pages
	// are persisted with empty text and still count toward PageCount.
	FailedPages int
}

// Segment splits the source into pages, produces per-page sub-artifacts,
// and persists document and page records. Passing an existing document id
// reprocesses that document: the prior page set is replaced atomically, so
// a failure mid-run leaves the old set untouched. A single page failing to
// yield text never aborts the document.
func (s *Segmenter) Segment(ctx context.Context, src Source, ownerID, existingDocumentID string) (*Result, error) {
	pageCount, err := src.PageCount()
	if err != nil {
		return nil, fmt.Errorf("reading page count: %w", err)
	}
	if pageCount < 1 {
		return nil, fmt.Errorf("source has no pages")
	}

	docID := existingDocumentID
	if docID == "" {
		docID = uuid.NewString()
	}

	artifactDir := filepath.Join(s.cfg.DataDir, pagesDir, docID)
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}

	// Per-page extraction has no cross-page dependency; run it through a
	// bounded worker pool. The persisted order is by page number, not by
	// completion order.
	pages := make([]types.Page, pageCount)
	failed := make([]bool, pageCount)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for n := 1; n <= pageCount; n++ {
		n := n
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pages[n-1] = s.extractPage(src, docID, n, artifactDir, &failed[n-1])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("page extraction cancelled: %w", err)
	}

	failedCount := 0
	for _, f := range failed {
		if f {
			failedCount++
		}
	}

	s.applySectionHints(ctx, docID, pages)

	doc := types.Document{
		ID:               docID,
		OwnerID:          ownerID,
		OriginalFilename: filepath.Base(src.Path()),
		StoragePath:      src.Path(),
		PageCount:        pageCount,
	}
	if existingDocumentID != "" {
		if prior, err := s.store.GetDocument(ctx, existingDocumentID); err == nil {
			doc.CreatedAt = prior.CreatedAt
			if ownerID == "" {
				doc.OwnerID = prior.OwnerID
			}
		}
	}

	if err := s.store.PutDocument(ctx, &doc); err != nil {
		return nil, err
	}
	if err := s.store.PutPages(ctx, docID, pages); err != nil {
		return nil, err
	}

	persisted, err := s.store.GetPages(ctx, docID)
	if err != nil {
		return nil, err
	}

	return &Result{Document: doc, Pages: persisted, FailedPages: failedCount}, nil
}

// extractPage builds one Page record. Extraction failures are recorded,
// not propagated: the page keeps empty text and a zero char count.
func (s *Segmenter) extractPage(src Source, docID string, pageNumber int, artifactDir string, failed *bool) types.Page {
	page := types.Page{
		ID:         uuid.NewString(),
		DocumentID: docID,
		PageNumber: pageNumber,
	}

	text, err := src.PageText(pageNumber)
	if err != nil {
		*failed = true
	} else {
		page.Text = text
		page.CharCount = len(text)
	}

	if path, err := src.WritePageArtifact(pageNumber, artifactDir); err == nil {
		page.ArtifactPath = path
	}
	return page
}

// applySectionHints enriches pages with section names when a prior
// structural analysis exists for the document. The structure stage maps
// headings to character offsets; pages are assigned the section their
// starting offset falls into. Absence of the analysis is not an error.
func (s *Segmenter) applySectionHints(ctx context.Context, docID string, pages []types.Page) {
	assessment, err := s.store.LatestAssessment(ctx, docID, types.StageStructure)
	if err != nil {
		return
	}
	var structure types.StructureOutput
	if err := json.Unmarshal(assessment.Payload, &structure); err != nil || len(structure.Sections) == 0 {
		return
	}

	offset := 0
	for i := range pages {
		for _, sec := range structure.Sections {
			if offset >= sec.StartOffset && offset < sec.EndOffset {
				pages[i].SectionHint = sec.Heading
				break
			}
		}
		// +1 for the page break separating consecutive pages.
		offset += pages[i].CharCount + 1
	}
}
