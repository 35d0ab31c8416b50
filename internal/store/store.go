// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists Documents, Pages, and per-stage Assessment records
// in a SQLite database. One writer per document at a time; reads may happen
// concurrently with unrelated writes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-assessor/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "assessor.db"
)

// ErrNotFound marks lookups that matched no record.
var ErrNotFound = errors.New("not found")

// Store manages the artifact SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open opens or creates the artifact database at dataDir/index/assessor.db
// and ensures the schema exists.
func Open(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: cfg.DataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			owner_id TEXT,
			original_filename TEXT,
			storage_path TEXT,
			page_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id),
			page_number INTEGER NOT NULL,
			artifact_path TEXT,
			page_text TEXT,
			char_count INTEGER NOT NULL DEFAULT 0,
			section_hint TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(document_id, page_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_document_id ON pages(document_id)`,
		`CREATE TABLE IF NOT EXISTS assessments (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL,
			stage_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_doc_stage
			ON assessments(document_id, stage_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// PutDocument upserts a document by id. An existing record keeps its
// created_at; updated_at is refreshed on every write.
func (s *Store) PutDocument(ctx context.Context, doc *types.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document has no id")
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, owner_id, original_filename, storage_path, page_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			owner_id=excluded.owner_id, original_filename=excluded.original_filename,
			storage_path=excluded.storage_path, page_count=excluded.page_count,
			updated_at=excluded.updated_at`,
		doc.ID, doc.OwnerID, doc.OriginalFilename, doc.StoragePath, doc.PageCount,
		doc.CreatedAt.Format(time.RFC3339Nano), doc.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument looks up a document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, original_filename, storage_path, page_count, created_at, updated_at
		 FROM documents WHERE id = ?`, id)

	var doc types.Document
	var createdAt, updatedAt string
	err := row.Scan(&doc.ID, &doc.OwnerID, &doc.OriginalFilename, &doc.StoragePath,
		&doc.PageCount, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", id, err)
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &doc, nil
}

// PutPages replaces the full page set for a document in one transaction:
// prior pages are deleted before the new batch is inserted, so a stale page
// from an earlier run can never survive alongside new ones. The document's
// page_count is kept equal to the number of persisted pages.
func (s *Store) PutPages(ctx context.Context, documentID string, pages []types.Page) error {
	if documentID == "" {
		return fmt.Errorf("no document id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("deleting old pages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (id, document_id, page_number, artifact_path, page_text, char_count, section_hint, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, p := range pages {
		hint := sql.NullString{String: p.SectionHint, Valid: p.SectionHint != ""}
		_, err := stmt.ExecContext(ctx,
			p.ID, documentID, p.PageNumber, p.ArtifactPath, p.Text, p.CharCount, hint, now, now)
		if err != nil {
			return fmt.Errorf("inserting page %d: %w", p.PageNumber, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET page_count = ?, updated_at = ? WHERE id = ?`,
		len(pages), now, documentID)
	if err != nil {
		return fmt.Errorf("updating page count: %w", err)
	}

	return tx.Commit()
}

// GetPages returns all pages for a document ordered by page number.
func (s *Store) GetPages(ctx context.Context, documentID string) ([]types.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, page_number, artifact_path, page_text, char_count, section_hint, created_at, updated_at
		 FROM pages WHERE document_id = ? ORDER BY page_number`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying pages for %s: %w", documentID, err)
	}
	defer rows.Close()

	var pages []types.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// GetPage looks up a single page by its page id.
func (s *Store) GetPage(ctx context.Context, pageID string) (*types.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, page_number, artifact_path, page_text, char_count, section_hint, created_at, updated_at
		 FROM pages WHERE id = ?`, pageID)
	if err != nil {
		return nil, fmt.Errorf("querying page %s: %w", pageID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("page %s: %w", pageID, ErrNotFound)
	}
	p, err := scanPage(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPage(rows *sql.Rows) (types.Page, error) {
	var p types.Page
	var hint sql.NullString
	var createdAt, updatedAt string
	err := rows.Scan(&p.ID, &p.DocumentID, &p.PageNumber, &p.ArtifactPath,
		&p.Text, &p.CharCount, &hint, &createdAt, &updatedAt)
	if err != nil {
		return types.Page{}, fmt.Errorf("scanning page: %w", err)
	}
	p.SectionHint = hint.String
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return p, nil
}

// PutAssessment appends an assessment record. Records are never mutated in
// place; a newer timestamp supersedes older ones for the same
// (document, stage) pair.
func (s *Store) PutAssessment(ctx context.Context, a *types.Assessment) error {
	if a.DocumentID == "" || a.StageID == "" {
		return fmt.Errorf("assessment needs document id and stage id")
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (document_id, stage_id, created_at, payload) VALUES (?, ?, ?, ?)`,
		a.DocumentID, a.StageID, a.Timestamp.Format(time.RFC3339Nano), string(a.Payload))
	if err != nil {
		return fmt.Errorf("inserting assessment %s/%s: %w", a.DocumentID, a.StageID, err)
	}
	return nil
}

// LatestAssessment returns the newest assessment for (documentID, stageID).
// When the direct lookup finds nothing it falls back to scanning the
// stage's records for payloads that mention the document id — best-effort
// reconciliation for callers that recorded under a different key, not a
// guaranteed index.
func (s *Store) LatestAssessment(ctx context.Context, documentID, stageID string) (*types.Assessment, error) {
	a, err := s.latestDirect(ctx, documentID, stageID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT document_id, stage_id, created_at, payload FROM assessments
		 WHERE stage_id = ? AND instr(payload, ?) > 0
		 ORDER BY created_at DESC LIMIT 1`,
		stageID, documentID)
	fallback, scanErr := scanAssessment(row)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s/%s: %w", documentID, stageID, ErrNotFound)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return fallback, nil
}

func (s *Store) latestDirect(ctx context.Context, documentID, stageID string) (*types.Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT document_id, stage_id, created_at, payload FROM assessments
		 WHERE document_id = ? AND stage_id = ?
		 ORDER BY created_at DESC LIMIT 1`,
		documentID, stageID)
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s/%s: %w", documentID, stageID, ErrNotFound)
	}
	return a, err
}

func scanAssessment(row *sql.Row) (*types.Assessment, error) {
	var a types.Assessment
	var createdAt, payload string
	if err := row.Scan(&a.DocumentID, &a.StageID, &createdAt, &payload); err != nil {
		return nil, err
	}
	a.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
	a.Payload = []byte(payload)
	return &a, nil
}

// AssessmentFilter narrows an Assessments query. Zero values match all.
type AssessmentFilter struct {
	DocumentID string
	StageID    string
	Limit      int
}

// Assessments returns records matching the filter, newest first.
func (s *Store) Assessments(ctx context.Context, filter AssessmentFilter) ([]types.Assessment, error) {
	query := `SELECT document_id, stage_id, created_at, payload FROM assessments WHERE 1=1`
	var args []any
	if filter.DocumentID != "" {
		query += ` AND document_id = ?`
		args = append(args, filter.DocumentID)
	}
	if filter.StageID != "" {
		query += ` AND stage_id = ?`
		args = append(args, filter.StageID)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying assessments: %w", err)
	}
	defer rows.Close()

	var out []types.Assessment
	for rows.Next() {
		var a types.Assessment
		var createdAt, payload string
		if err := rows.Scan(&a.DocumentID, &a.StageID, &createdAt, &payload); err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		a.Timestamp, _ = time.Parse(time.RFC3339Nano, createdAt)
		a.Payload = []byte(payload)
		out = append(out, a)
	}
	return out, rows.Err()
}
