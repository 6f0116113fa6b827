// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trace-digest CLI.
// See docs/ARCHITECTURE § CLI Surface.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trace-digest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the trace-digest CLI.
var rootCmd = &cobra.Command{
	Use:   "trace-digest",
	Short: "Distill agent trace artifacts into structured digests",
	Long: `trace-digest reads recorded agent interaction logs (trace JSON files),
extracts the user goal, gathered facts, prior analyses, and citation
links, and writes a structured digest JSON next to the trace.

Traces live inside a sandboxed workspace; all paths on the command line
are virtual paths like /workspace/run.json. Successful runs are recorded
in a local history index that can be listed, searched, and exported.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trace-digest.yaml or ~/.config/trace-digest/config.yaml)")
	rootCmd.PersistentFlags().String("workspace", "", "concrete directory backing the /workspace virtual root")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trace-digest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trace-digest"))
		}
	}

	viper.SetDefault("workspace.root", "workspace")
	viper.SetDefault("history.index_dir", "index")
	viper.SetDefault("history.max_results", 20)

	viper.SetEnvPrefix("TRACE_DIGEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// workspaceConfig builds the workspace settings from the flag, falling
// back to the config file and its default.
func workspaceConfig() types.WorkspaceConfig {
	root, _ := rootCmd.PersistentFlags().GetString("workspace")
	if root == "" {
		root = viper.GetString("workspace.root")
	}
	return types.WorkspaceConfig{Root: root}
}

// historyConfig builds the history index settings from the config file.
func historyConfig() types.HistoryConfig {
	return types.HistoryConfig{
		IndexDir:   viper.GetString("history.index_dir"),
		MaxResults: viper.GetInt("history.max_results"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
