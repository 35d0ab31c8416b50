// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/paper-assessor/internal/store"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Segmenter, *store.Store, string) {
	t.Helper()
	dataDir := t.TempDir()
	s, err := store.Open(types.StoreConfig{DataDir: dataDir})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	seg := New(s, types.SegmentationConfig{DataDir: dataDir, Workers: 2})
	return seg, s, dataDir
}

func writeMarkdown(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "paper.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// flakySource fails text extraction on chosen pages.
type flakySource struct {
	path      string
	texts     []string
	failPages map[int]bool
}

func (f *flakySource) Path() string            { return f.path }
func (f *flakySource) PageCount() (int, error) { return len(f.texts), nil }

func (f *flakySource) PageText(n int) (string, error) {
	if f.failPages[n] {
		return "", fmt.Errorf("page %d unreadable", n)
	}
	return f.texts[n-1], nil
}

func (f *flakySource) WritePageArtifact(n int, destDir string) (string, error) {
	if f.failPages[n] {
		return "", fmt.Errorf("page %d unreadable", n)
	}
	out := filepath.Join(destDir, fmt.Sprintf("page-%04d.txt", n))
	return out, os.WriteFile(out, []byte(f.texts[n-1]), 0o644)
}

// --- markdown source ---

func TestMarkdownSourcePagination(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantPages []string
	}{
		{
			name:      "no markers is one page",
			content:   "# Title\n\nAll the text.",
			wantPages: []string{"# Title\n\nAll the text."},
		},
		{
			name:      "markers split pages",
			content:   "<!-- page 1 -->\nFirst page text.\n<!-- page 2 -->\nSecond page text.",
			wantPages: []string{"First page text.", "Second page text."},
		},
		{
			name:      "preamble before first marker",
			content:   "Front matter.\n<!-- page 1 -->\nBody.",
			wantPages: []string{"Front matter.", "Body."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeMarkdown(t, t.TempDir(), tt.content)
			src, err := NewMarkdownSource(path)
			if err != nil {
				t.Fatal(err)
			}
			n, _ := src.PageCount()
			if n != len(tt.wantPages) {
				t.Fatalf("PageCount = %d, want %d", n, len(tt.wantPages))
			}
			for i, want := range tt.wantPages {
				got, err := src.PageText(i + 1)
				if err != nil {
					t.Fatal(err)
				}
				if got != want {
					t.Errorf("page %d = %q, want %q", i+1, got, want)
				}
			}
		})
	}
}

func TestMarkdownSourcePageOutOfRange(t *testing.T) {
	path := writeMarkdown(t, t.TempDir(), "one page only")
	src, err := NewMarkdownSource(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.PageText(0); err == nil {
		t.Error("page 0 accepted")
	}
	if _, err := src.PageText(2); err == nil {
		t.Error("page past the end accepted")
	}
}

// --- segmentation ---

func TestSegmentPersistsPages(t *testing.T) {
	seg, s, dataDir := testSetup(t)
	ctx := context.Background()

	content := "<!-- page 1 -->\nIntroduction text.\n<!-- page 2 -->\nMethods text.\n<!-- page 3 -->\nResults text."
	src, err := NewMarkdownSource(writeMarkdown(t, t.TempDir(), content))
	if err != nil {
		t.Fatal(err)
	}

	res, err := seg.Segment(ctx, src, "owner-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Document.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", res.Document.PageCount)
	}
	if res.FailedPages != 0 {
		t.Errorf("FailedPages = %d, want 0", res.FailedPages)
	}
	if len(res.Pages) != 3 {
		t.Fatalf("len(Pages) = %d, want 3", len(res.Pages))
	}
	for i, p := range res.Pages {
		if p.PageNumber != i+1 {
			t.Errorf("page %d has number %d", i, p.PageNumber)
		}
		if p.CharCount != len(p.Text) {
			t.Errorf("page %d char count %d != len(text) %d", i+1, p.CharCount, len(p.Text))
		}
		if p.ArtifactPath == "" {
			t.Errorf("page %d has no artifact", i+1)
		} else if _, err := os.Stat(p.ArtifactPath); err != nil {
			t.Errorf("artifact missing on disk: %v", err)
		}
	}

	// Artifacts live under the document's own directory.
	wantDir := filepath.Join(dataDir, "pages", res.Document.ID)
	if filepath.Dir(res.Pages[0].ArtifactPath) != wantDir {
		t.Errorf("artifact dir = %s, want %s", filepath.Dir(res.Pages[0].ArtifactPath), wantDir)
	}

	// The store agrees with the returned result.
	doc, err := s.GetDocument(ctx, res.Document.ID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.PageCount != 3 || doc.OwnerID != "owner-1" {
		t.Errorf("stored doc = %+v", doc)
	}
}

func TestSegmentReprocessReplacesPages(t *testing.T) {
	seg, s, _ := testSetup(t)
	ctx := context.Background()
	tmp := t.TempDir()

	first, err := NewMarkdownSource(writeMarkdown(t, tmp, "<!-- page 1 -->\nOne.\n<!-- page 2 -->\nTwo.\n<!-- page 3 -->\nThree."))
	if err != nil {
		t.Fatal(err)
	}
	res1, err := seg.Segment(ctx, first, "owner-1", "")
	if err != nil {
		t.Fatal(err)
	}

	// Reprocess with a shorter source under the same id.
	second, err := NewMarkdownSource(writeMarkdown(t, t.TempDir(), "<!-- page 1 -->\nNew one.\n<!-- page 2 -->\nNew two."))
	if err != nil {
		t.Fatal(err)
	}
	res2, err := seg.Segment(ctx, second, "", res1.Document.ID)
	if err != nil {
		t.Fatal(err)
	}

	if res2.Document.ID != res1.Document.ID {
		t.Fatal("reprocess must keep the document id")
	}
	if !res2.Document.CreatedAt.Equal(res1.Document.CreatedAt) {
		t.Error("reprocess must preserve created_at")
	}
	if res2.Document.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q, want preserved owner", res2.Document.OwnerID)
	}

	pages, err := s.GetPages(ctx, res1.Document.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("len(pages) = %d, want 2: stale pages survived", len(pages))
	}
	if pages[0].Text != "New one." || pages[1].Text != "New two." {
		t.Errorf("pages = %q, %q", pages[0].Text, pages[1].Text)
	}
	// New page records, not recycled ones.
	for _, p := range pages {
		if p.ID == res1.Pages[0].ID || p.ID == res1.Pages[1].ID {
			t.Error("page id reused across reprocessing")
		}
	}
}

func TestSegmentToleratesFailedPages(t *testing.T) {
	seg, _, _ := testSetup(t)
	ctx := context.Background()

	src := &flakySource{
		path:      "memory://flaky",
		texts:     []string{"first", "second", "third", "fourth"},
		failPages: map[int]bool{2: true, 4: true},
	}
	res, err := seg.Segment(ctx, src, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if res.FailedPages != 2 {
		t.Errorf("FailedPages = %d, want 2", res.FailedPages)
	}
	if res.Document.PageCount != 4 {
		t.Errorf("PageCount = %d, want 4: failed pages still count", res.Document.PageCount)
	}
	if res.Pages[1].Text != "" || res.Pages[1].CharCount != 0 {
		t.Errorf("failed page kept text: %+v", res.Pages[1])
	}
	if res.Pages[2].Text != "third" {
		t.Errorf("page 3 = %q, want %q", res.Pages[2].Text, "third")
	}
}

func TestSegmentEmptySource(t *testing.T) {
	seg, _, _ := testSetup(t)
	src := &flakySource{path: "memory://empty"}
	if _, err := seg.Segment(context.Background(), src, "", ""); err == nil {
		t.Fatal("empty source accepted")
	}
}

func TestSegmentAppliesSectionHints(t *testing.T) {
	seg, s, _ := testSetup(t)
	ctx := context.Background()

	// First pass establishes the document and its offsets.
	content := "<!-- page 1 -->\n0123456789\n<!-- page 2 -->\nabcdefghij"
	src, err := NewMarkdownSource(writeMarkdown(t, t.TempDir(), content))
	if err != nil {
		t.Fatal(err)
	}
	res, err := seg.Segment(ctx, src, "", "")
	if err != nil {
		t.Fatal(err)
	}

	// A structural analysis mapping the document's halves to sections.
	structure := types.StructureOutput{
		Sections: []types.SectionSpan{
			{Heading: "Introduction", StartOffset: 0, EndOffset: 11},
			{Heading: "Methods", StartOffset: 11, EndOffset: 22},
		},
	}
	payload, err := json.Marshal(structure)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutAssessment(ctx, &types.Assessment{
		DocumentID: res.Document.ID,
		StageID:    types.StageStructure,
		Payload:    payload,
	}); err != nil {
		t.Fatal(err)
	}

	// Reprocessing picks the hints up.
	res2, err := seg.Segment(ctx, src, "", res.Document.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res2.Pages[0].SectionHint != "Introduction" {
		t.Errorf("page 1 hint = %q, want Introduction", res2.Pages[0].SectionHint)
	}
	if res2.Pages[1].SectionHint != "Methods" {
		t.Errorf("page 2 hint = %q, want Methods", res2.Pages[1].SectionHint)
	}
}
