// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StoreConfig holds settings for the artifact store.
type StoreConfig struct {
	// DataDir is the base directory for persisted artifacts (contains
	// index/ with the SQLite database and pages/ with page artifacts).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// SegmentationConfig holds settings for document segmentation.
type SegmentationConfig struct {
	// DataDir is the base directory page artifacts are written under.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Workers bounds concurrent page extraction (default 4).
	Workers int `json:"workers" yaml:"workers"`
}

// OracleConfig holds shared settings for stages that call the analysis
// oracle.
type OracleConfig struct {
	// Model is the oracle model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates oracle calls.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed oracle calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the per-call timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// AssessConfig holds settings for the assessment driving loop.
type AssessConfig struct {
	// MaxRetriesPerStage caps per-stage retries (default 2).
	MaxRetriesPerStage int `json:"max_retries_per_stage" yaml:"max_retries_per_stage"`

	// RetryDelay is the pause before re-running a failed stage. The
	// orchestrator itself never sleeps; the delay belongs to this loop.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Store        StoreConfig        `json:"store" yaml:"store"`
	Segmentation SegmentationConfig `json:"segmentation" yaml:"segmentation"`
	Oracle       OracleConfig       `json:"oracle" yaml:"oracle"`
	Assess       AssessConfig       `json:"assess" yaml:"assess"`
}
