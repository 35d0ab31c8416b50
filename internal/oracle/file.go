// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// FileOracle serves pre-computed judgments from a directory: one
// <stage>.json or <stage>.yaml file per stage. It backs offline runs and
// replay of earlier oracle sessions; it performs no analysis of its own.
type FileOracle struct {
	// Dir is the directory holding per-stage judgment files.
	Dir string
}

// Assess returns the stored judgment for the task's stage.
func (f *FileOracle) Assess(_ context.Context, task Task) (json.RawMessage, error) {
	jsonPath := filepath.Join(f.Dir, task.Stage+".json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		return json.RawMessage(data), nil
	}

	yamlPath := filepath.Join(f.Dir, task.Stage+".yaml")
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("no stored judgment for stage %q in %s", task.Stage, f.Dir)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", yamlPath, err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", yamlPath, err)
	}
	return out, nil
}
