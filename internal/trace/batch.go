// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trace

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/trace-digest/internal/workspace"
	"github.com/pdiddy/trace-digest/pkg/types"
)

// processedSuffix marks digest artifacts so batch runs do not reprocess
// their own output.
const processedSuffix = "_processed.json"

// BatchSummary holds counts from a batch processing run.
type BatchSummary struct {
	Processed int
	Partial   int
	Failed    int
}

// Total returns the number of traces processed.
func (s BatchSummary) Total() int {
	return s.Processed + s.Partial + s.Failed
}

// HasFailures reports whether any traces failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// ProcessAll processes every trace JSON in the given virtual directory,
// strictly sequentially and in name order, writing one progress line per
// file to w. Digest artifacts (*_processed.json) are skipped. Per-file
// failures are counted and reported but never abort the run.
func ProcessAll(res *workspace.Resolver, dirVirtual string, w io.Writer) (BatchSummary, error) {
	dirPath, err := res.Resolve(dirVirtual)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("resolving batch directory: %w", err)
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading batch directory %s: %w", dirPath, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, processedSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var summary BatchSummary

	for _, name := range names {
		inputVirtual := strings.TrimSuffix(dirVirtual, "/") + "/" + name

		report := Process(res, inputVirtual, "")
		switch report.Status {
		case types.StatusSuccess:
			fmt.Fprintf(w, "processed %s (%d facts)\n", name, report.DataPreview.FactsCount)
			summary.Processed++
		case types.StatusPartialSuccess:
			fmt.Fprintf(w, "partial %s: %s\n", name, report.SaveError)
			summary.Partial++
		default:
			fmt.Fprintf(w, "failed  %s: %s\n", name, report.Error)
			summary.Failed++
		}
	}

	fmt.Fprintf(w, "\nprocessed: %d, partial: %d, failed: %d\n",
		summary.Processed, summary.Partial, summary.Failed)

	return summary, nil
}
