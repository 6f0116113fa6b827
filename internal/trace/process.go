// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/trace-digest/internal/workspace"
	"github.com/pdiddy/trace-digest/pkg/types"
)

// Process runs the full pipeline for one trace: resolve the input path,
// load and normalize the JSON, scan the records, and persist the digest.
// outputVirtual selects the destination; when empty the digest lands at
// /workspace/<input-stem>_processed.json.
//
// Process never returns a Go error. Every failure is caught where it
// occurs and converted into a Report: failures before extraction yield
// status "error", while a persistence failure after a successful
// extraction downgrades to "partial_success" carrying the extracted data.
func Process(res *workspace.Resolver, inputVirtual, outputVirtual string) types.Report {
	report, _ := ProcessAndExtract(res, inputVirtual, outputVirtual)
	return report
}

// ProcessAndExtract is Process with the extraction result exposed, so
// callers that index successful runs do not have to reparse the digest.
// The result is nil whenever the report status is "error".
func ProcessAndExtract(res *workspace.Resolver, inputVirtual, outputVirtual string) (types.Report, *types.ExtractionResult) {
	inputPath, err := res.Resolve(inputVirtual)
	if err != nil {
		return errorReport("Input path resolution failed: %v", err), nil
	}

	if _, err := os.Stat(inputPath); err != nil {
		return errorReport("File not found: %s", inputVirtual), nil
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return errorReport("Error reading JSON: %v", err), nil
	}

	root, err := decodeTrace(raw)
	if err != nil {
		return errorReport("Error reading JSON: %v", err), nil
	}

	records, err := NormalizeRoot(root)
	if err != nil {
		return errorReport("%v", err), nil
	}

	result := Scan(records, inputVirtual)

	if outputVirtual == "" {
		stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outputVirtual = fmt.Sprintf("%s/%s_processed.json", workspace.VirtualRoot, stem)
	}

	if err := writeDigest(res, outputVirtual, result); err != nil {
		return types.Report{
			Status:        types.StatusPartialSuccess,
			ExtractedData: result,
			SaveError:     fmt.Sprintf("Failed to save file: %v", err),
		}, result
	}

	return types.Report{
		Status:    types.StatusSuccess,
		Message:   fmt.Sprintf("Successfully processed and saved to %s", outputVirtual),
		SavedPath: outputVirtual,
		DataPreview: &types.DataPreview{
			Goal:       result.UserGoal,
			FactsCount: len(result.GatheredFacts),
		},
	}, result
}

// writeDigest resolves the output path, creates missing parent
// directories, and writes the digest artifact, fully replacing any
// existing file.
func writeDigest(res *workspace.Resolver, outputVirtual string, result *types.ExtractionResult) error {
	savePath, err := res.Resolve(outputVirtual)
	if err != nil {
		return fmt.Errorf("output path resolution failed: %w", err)
	}

	if err := res.EnsureParent(savePath); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := MarshalDigest(result)
	if err != nil {
		return fmt.Errorf("encoding digest: %w", err)
	}

	if err := os.WriteFile(savePath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", savePath, err)
	}
	return nil
}

// MarshalDigest encodes the digest artifact: UTF-8 JSON, 4-space
// indentation, non-ASCII characters written literally.
func MarshalDigest(result *types.ExtractionResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func errorReport(format string, args ...any) types.Report {
	return types.Report{
		Status: types.StatusError,
		Error:  fmt.Sprintf(format, args...),
	}
}
