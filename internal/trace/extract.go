// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trace reads agent trace JSON artifacts and distills them into
// digest artifacts: the user goal, gathered facts, prior analyses, and
// citation links. See docs/ARCHITECTURE.md § Processing.
package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/trace-digest/pkg/types"
)

// Field names recognized in trace records.
const (
	fieldID       = "id"
	fieldRole     = "role"
	fieldTaskType = "taskType"
	fieldContent  = "content"
)

const (
	roleClient  = "client"
	roleServer  = "server"
	taskSearch  = "search"
	taskAnalyze = "analyze"
)

// answerPreviewLen caps the answer excerpt in link lines, counted in
// runes so multi-byte text is never split mid-character.
const answerPreviewLen = 50

// DecodeRoot parses raw trace JSON and normalizes it into a record list.
func DecodeRoot(raw []byte) ([]any, error) {
	root, err := decodeTrace(raw)
	if err != nil {
		return nil, err
	}
	return NormalizeRoot(root)
}

// decodeTrace parses raw trace JSON, keeping numbers as json.Number so
// identifiers and citation indexes round-trip without float formatting.
func decodeTrace(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding trace JSON: %w", err)
	}
	return root, nil
}

// NormalizeRoot reduces a parsed trace root to its record list. An
// object root contributes its "fullContent" field (absent means empty);
// an array root is the record list itself. Any other root shape, or a
// present "fullContent" that is not an array, is a schema error.
func NormalizeRoot(root any) ([]any, error) {
	switch v := root.(type) {
	case map[string]any:
		fc, ok := v["fullContent"]
		if !ok {
			return []any{}, nil
		}
		list, ok := fc.([]any)
		if !ok {
			return nil, fmt.Errorf("'fullContent' is not a list")
		}
		return list, nil
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("JSON root is neither a list nor a dict")
	}
}

// Scan walks the record list once, in order, and assembles the digest.
// Non-object entries are skipped. The extraction rules are independent
// predicates, not exclusive branches: a single record may contribute to
// the goal and to a task rule in the same pass. If several records match
// the goal rule the last one wins.
func Scan(records []any, sourceFile string) *types.ExtractionResult {
	result := &types.ExtractionResult{
		SourceFile:       sourceFile,
		GatheredFacts:    []types.FactBlock{},
		PreviousAnalyses: []types.AnalysisStep{},
		LinksToText:      []string{},
	}

	for _, entry := range records {
		msg, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		rec := recordFromMap(msg)

		if isGoalID(rec.ID) && rec.Role == roleClient {
			result.UserGoal = stringify(rec.Content)
		}

		if rec.TaskType == taskSearch {
			if c, ok := rec.Content.(map[string]any); ok {
				scanSearch(searchContentFromMap(c), result)
			}
		}

		if rec.TaskType == taskAnalyze && rec.Role == roleServer {
			result.PreviousAnalyses = append(result.PreviousAnalyses, types.AnalysisStep{
				StepID:   rec.ID,
				Analysis: stringify(rec.Content),
			})
		}
	}

	return result
}

// recordFromMap builds a TraceRecord from a loose record map. Fields
// with an unexpected type are left at their zero value.
func recordFromMap(m map[string]any) types.TraceRecord {
	rec := types.TraceRecord{
		ID:      m[fieldID],
		Content: m[fieldContent],
	}
	if s, ok := m[fieldRole].(string); ok {
		rec.Role = s
	}
	if s, ok := m[fieldTaskType].(string); ok {
		rec.TaskType = s
	}
	return rec
}

// searchContentFromMap builds a SearchContent from a loose content map,
// applying the extraction defaults: missing subTask becomes "Unknown",
// missing answer the empty string, and non-object citation entries are
// dropped.
func searchContentFromMap(m map[string]any) types.SearchContent {
	sc := types.SearchContent{
		SubTask: fieldOr(m, "subTask", "Unknown"),
		Answer:  fieldOr(m, "answer", ""),
	}

	citations, _ := m["citation"].([]any)
	for _, entry := range citations {
		c, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		sc.Citation = append(sc.Citation, types.CitationRef{
			URL:   fieldOr(c, "url", "#"),
			Title: fieldOr(c, "title", "Source"),
			Index: c["index"],
		})
	}
	return sc
}

// scanSearch appends one fact block and its citation lines to the digest.
func scanSearch(sc types.SearchContent, result *types.ExtractionResult) {
	sources := []string{}
	for _, c := range sc.Citation {
		result.LinksToText = append(result.LinksToText, fmt.Sprintf(
			"Sub-task: %s, Answer: %s..., Link: %s",
			sc.SubTask, truncateRunes(sc.Answer, answerPreviewLen), c.URL,
		))

		sources = append(sources, fmt.Sprintf("[%s] %s", indexLabel(c.Index), c.Title))
	}

	result.GatheredFacts = append(result.GatheredFacts, types.FactBlock{
		Topic:    sc.SubTask,
		Findings: sc.Answer,
		Sources:  sources,
	})
}

// indexLabel renders a citation's ordinal label, defaulting to "?" when
// the citation carries none.
func indexLabel(index any) string {
	if index == nil {
		return "?"
	}
	return stringify(index)
}

// isGoalID reports whether id identifies the opening client record.
// Traces use numeric or string identifiers, so the comparison is by
// value: the number 1 and the string "1" both qualify.
func isGoalID(id any) bool {
	switch v := id.(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f == 1
		}
		return false
	case float64:
		return v == 1
	case int:
		return v == 1
	case string:
		return v == "1"
	default:
		return false
	}
}

// fieldOr returns the string form of m[key], or def when the field is
// absent or nil.
func fieldOr(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	return stringify(v)
}

// stringify renders a loosely typed field as text: strings pass through,
// anything else becomes its compact JSON form with non-ASCII characters
// preserved literally.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// truncateRunes returns at most n leading runes of s.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
