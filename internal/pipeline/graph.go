// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline plans paper-assessment runs. The orchestrator is a pure
// reconciliation function over a declarative stage-dependency graph and a
// per-document stage-state table; all blocking work happens outside it.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/pdiddy/paper-assessor/pkg/types"
)

// Graph maps each stage id to the stage ids that must reach success before
// it may run. Stages with an empty dependency set are immediately runnable.
type Graph map[string][]string

// Validate checks that every dependency names a known stage and that the
// graph contains no cycles.
func (g Graph) Validate() error {
	for stage, deps := range g {
		for _, dep := range deps {
			if _, ok := g[dep]; !ok {
				return fmt.Errorf("stage %q depends on unknown stage %q", stage, dep)
			}
		}
	}

	// Three-color depth-first search for cycle detection.
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g))

	var visit func(stage string) error
	visit = func(stage string) error {
		color[stage] = gray
		for _, dep := range g[stage] {
			switch color[dep] {
			case gray:
				return fmt.Errorf("dependency cycle through stage %q", dep)
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[stage] = black
		return nil
	}

	for _, stage := range g.Stages() {
		if color[stage] == white {
			if err := visit(stage); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stages returns the graph's stage ids in sorted order.
func (g Graph) Stages() []string {
	stages := make([]string, 0, len(g))
	for s := range g {
		stages = append(stages, s)
	}
	sort.Strings(stages)
	return stages
}

// Dependents returns the stages that list the given stage as a dependency,
// in sorted order.
func (g Graph) Dependents(stage string) []string {
	var out []string
	for s, deps := range g {
		for _, dep := range deps {
			if dep == stage {
				out = append(out, s)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// DefaultGraph returns the stage dependencies of the paper-assessment
// pipeline. Every analysis stage needs the segmented document; the report
// needs every required analysis to have finished. The structure stage is
// best-effort enrichment, so the report does not wait on it.
func DefaultGraph() Graph {
	return Graph{
		types.StageSegmentation: {},
		types.StageStructure:    {types.StageSegmentation},
		types.StageCitations:    {types.StageSegmentation},
		types.StageClarity:      {types.StageSegmentation},
		types.StageMethodology:  {types.StageSegmentation},
		types.StageNovelty:      {types.StageSegmentation},
		types.StageReport: {
			types.StageCitations,
			types.StageClarity,
			types.StageMethodology,
			types.StageNovelty,
		},
	}
}

// DefaultStages returns the initial stage-state table matching
// DefaultGraph. The structure stage is the only optional one.
func DefaultStages() map[string]types.StageState {
	mk := func(id, name string, required bool) types.StageState {
		return types.StageState{
			StageID:     id,
			DisplayName: name,
			Required:    required,
			Status:      types.StagePending,
		}
	}
	return map[string]types.StageState{
		types.StageSegmentation: mk(types.StageSegmentation, "Document segmentation", true),
		types.StageStructure:    mk(types.StageStructure, "Structural analysis", false),
		types.StageCitations:    mk(types.StageCitations, "Citation analysis", true),
		types.StageClarity:      mk(types.StageClarity, "Clarity review", true),
		types.StageMethodology:  mk(types.StageMethodology, "Methodology review", true),
		types.StageNovelty:      mk(types.StageNovelty, "Novelty assessment", true),
		types.StageReport:       mk(types.StageReport, "Final report", true),
	}
}
