// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-assessor CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-assessor/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paper-assessor CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-assessor",
	Short: "Deterministic assessment pipeline for academic papers",
	Long: `paper-assessor runs long documents through an ordered set of analysis
stages and assembles the results into one report. The mechanical stages —
page segmentation, citation extraction and matching, report aggregation —
run locally; semantic judgments are delegated to an external analysis
oracle when one is configured.

Each stage is reachable as a subcommand: segment, citations, pipeline,
report, and assess for a full run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-assessor.yaml or ~/.config/paper-assessor/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "data", "base directory for persisted artifacts")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-assessor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-assessor"))
		}
	}

	viper.SetEnvPrefix("PAPER_ASSESSOR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// dataDir resolves the artifact directory: flag, then config, then default.
func dataDir(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" && cmd.Flags().Changed("data-dir") {
		return dir
	}
	if dir := viper.GetString("store.data_dir"); dir != "" {
		return dir
	}
	dir, _ := cmd.Flags().GetString("data-dir")
	return dir
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
