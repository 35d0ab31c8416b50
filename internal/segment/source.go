// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment splits a source document into per-page records and
// page-local sub-artifacts, writing them through the artifact store.
package segment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Source is a paginated document the segmenter can read. Page numbers are
// 1-based.
type Source interface {
	// Path returns the source file's location.
	Path() string

	// PageCount returns the number of pages.
	PageCount() (int, error)

	// PageText extracts the text of one page.
	PageText(pageNumber int) (string, error)

	// WritePageArtifact produces a page-local sub-artifact (a single-page
	// rendering) under destDir and returns its path.
	WritePageArtifact(pageNumber int, destDir string) (string, error)
}

// pageMarkerRe matches the page delimiters converters leave in Markdown:
// <!-- page 3 -->.
var pageMarkerRe = regexp.MustCompile(`^<!-- page (\d+) -->$`)

// MarkdownSource reads a converted Markdown document whose pages are
// delimited by page markers. A document without markers is one page.
type MarkdownSource struct {
	path  string
	pages []string
}

// NewMarkdownSource loads and paginates a Markdown file.
func NewMarkdownSource(path string) (*MarkdownSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading markdown %s: %w", path, err)
	}

	var pages []string
	var current []string
	started := false
	for _, line := range strings.Split(string(data), "\n") {
		if pageMarkerRe.MatchString(strings.TrimSpace(line)) {
			// Front matter before the first marker becomes its own page
			// rather than being dropped.
			if started || strings.TrimSpace(strings.Join(current, "\n")) != "" {
				pages = append(pages, strings.Join(current, "\n"))
			}
			current = nil
			started = true
			continue
		}
		current = append(current, line)
	}
	pages = append(pages, strings.Join(current, "\n"))

	return &MarkdownSource{path: path, pages: pages}, nil
}

func (m *MarkdownSource) Path() string { return m.path }

func (m *MarkdownSource) PageCount() (int, error) { return len(m.pages), nil }

func (m *MarkdownSource) PageText(pageNumber int) (string, error) {
	if pageNumber < 1 || pageNumber > len(m.pages) {
		return "", fmt.Errorf("page %d out of range 1..%d", pageNumber, len(m.pages))
	}
	return strings.TrimSpace(m.pages[pageNumber-1]), nil
}

func (m *MarkdownSource) WritePageArtifact(pageNumber int, destDir string) (string, error) {
	text, err := m.PageText(pageNumber)
	if err != nil {
		return "", err
	}
	out := filepath.Join(destDir, fmt.Sprintf("page-%04d.md", pageNumber))
	if err := os.WriteFile(out, []byte(text+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("writing page artifact: %w", err)
	}
	return out, nil
}

// PDFSource reads pages directly from a PDF file.
type PDFSource struct {
	path string
	conf *pdfmodel.Configuration
}

// NewPDFSource opens a PDF for segmentation.
func NewPDFSource(path string) (*PDFSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("pdf source %s: %w", path, err)
	}
	return &PDFSource{path: path, conf: pdfmodel.NewDefaultConfiguration()}, nil
}

func (p *PDFSource) Path() string { return p.path }

func (p *PDFSource) PageCount() (int, error) {
	n, err := api.PageCountFile(p.path)
	if err != nil {
		return 0, fmt.Errorf("counting pages in %s: %w", p.path, err)
	}
	return n, nil
}

// textShowRe pulls string operands of text-showing operators out of a raw
// PDF content stream. Best effort only; pages whose text is encoded
// beyond this recovery come back empty, which the segmenter tolerates.
var textShowRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*(?:Tj|')`)

func (p *PDFSource) PageText(pageNumber int) (string, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, p.conf)
	if err != nil {
		return "", fmt.Errorf("extracting page %d content: %w", pageNumber, err)
	}
	r, err := pdfcpu.ExtractPageContent(ctx, pageNumber)
	if err != nil {
		return "", fmt.Errorf("extracting page %d content: %w", pageNumber, err)
	}
	if r == nil {
		return "", nil
	}

	var sb strings.Builder
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, r); err != nil {
		return "", fmt.Errorf("reading page %d content: %w", pageNumber, err)
	}
	for _, m := range textShowRe.FindAllStringSubmatch(buf.String(), -1) {
		sb.WriteString(unescapePDFString(m[1]))
		sb.WriteByte(' ')
	}
	return strings.TrimSpace(sb.String()), nil
}

func (p *PDFSource) WritePageArtifact(pageNumber int, destDir string) (string, error) {
	out := filepath.Join(destDir, fmt.Sprintf("page-%04d.pdf", pageNumber))
	pages := []string{fmt.Sprintf("%d", pageNumber)}
	if err := api.TrimFile(p.path, out, pages, p.conf); err != nil {
		return "", fmt.Errorf("writing single-page pdf: %w", err)
	}
	return out, nil
}

// unescapePDFString resolves the escape sequences PDF literal strings use.
func unescapePDFString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '(', ')', '\\':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
