// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trace-digest/internal/store"
	"github.com/pdiddy/trace-digest/internal/trace"
	"github.com/pdiddy/trace-digest/internal/workspace"
	"github.com/pdiddy/trace-digest/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process <virtual-path>",
	Short: "Extract a digest from a trace JSON file",
	Long: `Process reads a trace JSON file from the workspace, extracts the user
goal, gathered facts, prior analyses, and citation links, and writes the
digest to a new JSON file. Without --output the digest lands next to the
input as <name>_processed.json.

With --batch the argument names a workspace directory instead; every
trace JSON in it is processed sequentially.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	res := workspace.NewResolver(workspaceConfig())

	batch, _ := cmd.Flags().GetBool("batch")
	if batch {
		return runProcessBatch(res, args[0])
	}

	output, _ := cmd.Flags().GetString("output")
	report, result := trace.ProcessAndExtract(res, args[0], output)

	if report.Status == types.StatusSuccess {
		if noIndex, _ := cmd.Flags().GetBool("no-index"); !noIndex {
			recordRun(result, report.SavedPath)
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if err := formatReport(report, jsonOutput); err != nil {
		return err
	}

	if report.Status == types.StatusError {
		return fmt.Errorf("processing failed: %s", report.Error)
	}
	return nil
}

func runProcessBatch(res *workspace.Resolver, dirVirtual string) error {
	summary, err := trace.ProcessAll(res, dirVirtual, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d trace(s) failed processing", summary.Failed)
	}
	return nil
}

// recordRun appends a successful run to the history index. The digest is
// already on disk, so index failures only warn.
func recordRun(result *types.ExtractionResult, savedPath string) {
	s, err := store.NewStore(historyConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history index unavailable: %v\n", err)
		return
	}
	defer s.Close()

	if _, err := s.Record(context.Background(), result, savedPath); err != nil {
		fmt.Fprintf(os.Stderr, "warning: recording run failed: %v\n", err)
	}
}

func formatReport(report types.Report, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	switch report.Status {
	case types.StatusSuccess:
		fmt.Println(report.Message)
		fmt.Printf("  goal:  %s\n", report.DataPreview.Goal)
		fmt.Printf("  facts: %d\n", report.DataPreview.FactsCount)
	case types.StatusPartialSuccess:
		fmt.Printf("extraction succeeded but the digest was not saved: %s\n", report.SaveError)
		fmt.Printf("  goal:  %s\n", report.ExtractedData.UserGoal)
		fmt.Printf("  facts: %d\n", len(report.ExtractedData.GatheredFacts))
	default:
		fmt.Printf("error: %s\n", report.Error)
	}
	return nil
}

func init() {
	processCmd.Flags().StringP("output", "o", "", "virtual path for the digest (default: <input>_processed.json)")
	processCmd.Flags().Bool("batch", false, "treat the argument as a workspace directory of traces")
	processCmd.Flags().Bool("json", false, "print the full report as JSON")
	processCmd.Flags().Bool("no-index", false, "skip recording the run in the history index")

	rootCmd.AddCommand(processCmd)
}
