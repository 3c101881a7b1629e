// Copyright Nora Vasquez, 2026. All rights reserved.

// Package main is the entry point for the fastqfetch CLI, a tool for
// retrieving GEO series metadata, resolving samples to SRA runs, and
// downloading FASTQ files in parallel.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nvasquez/fastqfetch/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, then the secret value
// for key if it exists, then "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the fastqfetch CLI.
var rootCmd = &cobra.Command{
	Use:   "fastqfetch",
	Short: "Download sequencing data from GEO and the SRA",
	Long: `fastqfetch retrieves sequencing-run metadata from the NCBI Gene
Expression Omnibus and downloads the associated FASTQ files.

Each pipeline stage is a subcommand: metadata fetches and parses series
SOFT files, samples filters series samples by their characteristics,
resolve maps GEO accessions to SRA run accessions, and fetch downloads
FASTQ files in parallel through a chain of download methods. dataset
runs the whole pipeline for one series.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./fastqfetch.yaml or ~/.config/fastqfetch/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "data", "base directory for metadata, FASTQ files, and the manifest")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fastqfetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fastqfetch"))
		}
	}

	viper.SetEnvPrefix("FASTQFETCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
