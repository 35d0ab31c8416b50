// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-assessor/internal/assess"
	"github.com/pdiddy/paper-assessor/internal/citations"
	"github.com/pdiddy/paper-assessor/internal/oracle"
	"github.com/pdiddy/paper-assessor/internal/report"
	"github.com/pdiddy/paper-assessor/internal/segment"
	"github.com/pdiddy/paper-assessor/internal/store"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

var assessCmd = &cobra.Command{
	Use:   "assess [file]",
	Short: "Run the full assessment pipeline over a document",
	Long: `Assess drives a complete pipeline run: segmentation, citation
analysis, oracle-backed reviews when an oracle is available, and the final
aggregated report. Without an oracle only the mechanical stages run and
the report is built from their findings.

--oracle-dir points at a directory of per-stage judgment files
(<stage>.json or <stage>.yaml) used as the analysis oracle.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().String("owner", "", "owner id recorded on the document")
	assessCmd.Flags().String("document-id", "", "existing document id to reassess")
	assessCmd.Flags().String("oracle-dir", "", "directory of stored oracle judgments")
	assessCmd.Flags().String("api-key", "", "oracle API key (default: .secrets/oracle-api-key)")
	assessCmd.Flags().Int("max-retries", 0, "per-stage retry budget (default 2)")
	assessCmd.Flags().Duration("retry-delay", time.Second, "pause before re-running a failed stage")

	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, args []string) error {
	owner, _ := cmd.Flags().GetString("owner")
	docID, _ := cmd.Flags().GetString("document-id")
	oracleDir, _ := cmd.Flags().GetString("oracle-dir")
	apiKey, _ := cmd.Flags().GetString("api-key")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	retryDelay, _ := cmd.Flags().GetDuration("retry-delay")
	dir := dataDir(cmd)

	oracleCfg := types.OracleConfig{
		APIKey:     secretDefault("oracle-api-key", apiKey),
		MaxRetries: 3,
	}

	src, err := openSource(args[0])
	if err != nil {
		return err
	}

	s, err := store.Open(types.StoreConfig{DataDir: dir})
	if err != nil {
		return err
	}
	defer s.Close()

	var backend oracle.Oracle
	if oracleDir != "" {
		backend = &oracle.FileOracle{Dir: oracleDir}
	}

	stages := buildStages(s, src, owner, dir, backend, oracleCfg)
	runner, err := assess.NewRunner(stages, types.AssessConfig{
		MaxRetriesPerStage: maxRetries,
		RetryDelay:         retryDelay,
	})
	if err != nil {
		return err
	}

	if docID == "" {
		docID = uuid.NewString()
	}
	fmt.Fprintf(os.Stdout, "assessing document %s\n", docID)

	eval, _, err := runner.Run(context.Background(), docID, os.Stdout)
	if err != nil {
		return err
	}
	if eval.Status != types.PipelineCompletedSuccess {
		for _, p := range eval.BlockingProblems {
			fmt.Fprintf(os.Stderr, "problem: %s\n", p.Reason)
		}
		return fmt.Errorf("pipeline ended with status %s", eval.Status)
	}

	fmt.Fprintf(os.Stdout, "report stored; view it with: paper-assessor report %s\n", docID)
	return nil
}

// buildStages assembles the stage set. Oracle-backed stages join only
// when a backend exists; the report then waits on every required
// analysis stage.
func buildStages(s *store.Store, src segment.Source, owner, dir string, backend oracle.Oracle, oracleCfg types.OracleConfig) []assess.StageRunner {
	seg := segment.New(s, types.SegmentationConfig{DataDir: dir})
	engine := citations.New(citations.DefaultParams())

	stages := []assess.StageRunner{
		&assess.SegmentationStage{Segmenter: seg, Store: s, Source: src, OwnerID: owner},
		&assess.CitationsStage{Store: s, Engine: engine},
	}

	reportDeps := []string{types.StageCitations}
	if backend != nil {
		for _, id := range []string{types.StageStructure, types.StageClarity, types.StageMethodology, types.StageNovelty} {
			spec := assess.DefaultOracleInstructions[id]
			stages = append(stages, &assess.OracleStage{
				Store:       s,
				Backend:     backend,
				ID:          id,
				Name:        spec.Name,
				IsRequired:  id != types.StageStructure,
				Instruction: spec.Instruction,
				Shape:       spec.Shape,
				MaxRetries:  oracleCfg.MaxRetries,
			})
			if id != types.StageStructure {
				reportDeps = append(reportDeps, id)
			}
		}
	}

	agg := report.New(s, backend, oracleCfg.MaxRetries)
	stages = append(stages, &assess.ReportStage{Store: s, Aggregator: agg, Deps: reportDeps})
	return stages
}
