// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-assessor
// pipeline: documents and pages, per-stage assessment records, pipeline
// state, citation analysis results, and the final report.
package types

import "time"

// Document is the master record for a paper under assessment. Identity is
// ID, assigned at creation and immutable; reprocessing the same paper
// updates the record in place.
type Document struct {
	// ID is the globally unique document identifier.
	ID string `json:"document_id" yaml:"document_id"`

	// OwnerID identifies who submitted the document.
	OwnerID string `json:"owner_id" yaml:"owner_id"`

	// OriginalFilename is the filename as uploaded.
	OriginalFilename string `json:"original_filename" yaml:"original_filename"`

	// StoragePath is the local filesystem path to the source file.
	StoragePath string `json:"storage_path" yaml:"storage_path"`

	// PageCount equals the number of persisted Page records for this document.
	PageCount int `json:"page_count" yaml:"page_count"`

	// CreatedAt is set on first write and preserved across reprocessing.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is refreshed on every write.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Page is one page of a segmented document. All pages for a document are
// replaced as a set on reprocessing; PageNumber is 1-based and unique
// within a document.
type Page struct {
	// ID is unique per page and stable across re-reads of the same set.
	ID string `json:"page_id" yaml:"page_id"`

	// DocumentID is the owning document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// PageNumber is the 1-based position within the document.
	PageNumber int `json:"page_number" yaml:"page_number"`

	// ArtifactPath is the path to the page-local sub-artifact
	// (e.g. a single-page rendering), empty if none was produced.
	ArtifactPath string `json:"page_artifact_path" yaml:"page_artifact_path"`

	// Text is the extracted page text. Empty when extraction failed.
	Text string `json:"page_text" yaml:"page_text"`

	// CharCount is len(Text). Zero for failed extractions.
	CharCount int `json:"char_count" yaml:"char_count"`

	// SectionHint names the section this page falls under, when a prior
	// structural analysis is available. Empty means unknown.
	SectionHint string `json:"section_hint,omitempty" yaml:"section_hint,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
