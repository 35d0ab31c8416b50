// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-assessor/internal/report"
	"github.com/pdiddy/paper-assessor/internal/store"
	"github.com/pdiddy/paper-assessor/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report [document-id]",
	Short: "Aggregate stored stage assessments into the final report",
	Long: `Report pulls the latest assessment per stage for a document, merges
every finding into one priority-sorted list, and derives the verdict from
the averaged stage scores. Stages without an assessment are omitted;
a document with no assessments at all is an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().Bool("json", false, "print JSON instead of YAML")
	reportCmd.Flags().String("out", "", "also write the report to a file")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	outPath, _ := cmd.Flags().GetString("out")

	s, err := store.Open(types.StoreConfig{DataDir: dataDir(cmd)})
	if err != nil {
		return err
	}
	defer s.Close()

	agg := report.New(s, nil, 0)
	rep, err := agg.Aggregate(context.Background(), args[0])
	if err != nil {
		return err
	}

	var data []byte
	if asJSON {
		data, err = json.MarshalIndent(rep, "", "  ")
	} else {
		data, err = yaml.Marshal(rep)
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
