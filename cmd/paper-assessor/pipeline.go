// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-assessor/internal/pipeline"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Inspect and evaluate pipeline state",
}

var pipelineEvaluateCmd = &cobra.Command{
	Use:   "evaluate [state.yaml]",
	Short: "Evaluate a pipeline state against the stage graph",
	Long: `Evaluate reads a PipelineState from a YAML file and reports the
pipeline's status, the next runnable actions, progress over required
stages, and any blocking problems. Evaluation is pure: the same state
always yields the same answer, so it can drive a reconciliation loop.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipelineEvaluate,
}

var pipelineGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the default stage dependency graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		graph := pipeline.DefaultGraph()
		for _, stage := range graph.Stages() {
			deps := graph[stage]
			if len(deps) == 0 {
				fmt.Fprintf(os.Stdout, "%-14s (no dependencies)\n", stage)
				continue
			}
			fmt.Fprintf(os.Stdout, "%-14s needs %v\n", stage, deps)
		}
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineEvaluateCmd)
	pipelineCmd.AddCommand(pipelineGraphCmd)
	rootCmd.AddCommand(pipelineCmd)
}

func runPipelineEvaluate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading state file: %w", err)
	}

	var state types.PipelineState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parsing state file: %w", err)
	}

	orch, err := pipeline.New(pipeline.DefaultGraph())
	if err != nil {
		return err
	}
	eval := orch.Evaluate(state)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(eval)
}
