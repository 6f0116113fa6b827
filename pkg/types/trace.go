// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trace-digest pipeline.
// See docs/ARCHITECTURE.md § Data Structures.
package types

// TraceRecord is one entry in a trace's message list. Traces are produced
// by heterogeneous agent frameworks, so every field is optional and
// loosely typed; absent fields are zero values.
type TraceRecord struct {
	// ID is the record identifier. Traces in the wild carry numbers or
	// strings here, so it stays untyped.
	ID any `json:"id,omitempty" yaml:"id,omitempty"`

	// Role tags the record origin (e.g. "client", "server").
	Role string `json:"role,omitempty" yaml:"role,omitempty"`

	// TaskType tags the kind of work the record captures. Values of
	// interest are "search" and "analyze".
	TaskType string `json:"taskType,omitempty" yaml:"task_type,omitempty"`

	// Content is the record payload: a plain string for conversational
	// records, a structured object for task records.
	Content any `json:"content,omitempty" yaml:"content,omitempty"`
}

// CitationRef is a structured source reference attached to a search
// record's content.
type CitationRef struct {
	// URL is the source link.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Title is the source title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Index is the source's ordinal label within the record. Untyped
	// because traces carry both numeric and string labels.
	Index any `json:"index,omitempty" yaml:"index,omitempty"`
}

// SearchContent is the structured content of a search-type record.
type SearchContent struct {
	// SubTask is the sub-question the search answered.
	SubTask string `json:"subTask,omitempty" yaml:"sub_task,omitempty"`

	// Answer is the gathered answer text.
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`

	// Citation lists the sources backing the answer, in record order.
	Citation []CitationRef `json:"citation,omitempty" yaml:"citation,omitempty"`
}

// FactBlock is one gathered fact in the digest: the answer to one search
// sub-task together with its formatted source lines.
type FactBlock struct {
	// Topic is the sub-task the fact answers.
	Topic string `json:"topic" yaml:"topic"`

	// Findings is the full answer text, untruncated.
	Findings string `json:"findings" yaml:"findings"`

	// Sources holds one "[index] title" line per citation, in citation order.
	Sources []string `json:"sources" yaml:"sources"`
}

// AnalysisStep is one prior analysis in the digest, extracted from an
// analyze-type server record.
type AnalysisStep struct {
	// StepID echoes the source record's identifier.
	StepID any `json:"step_id" yaml:"step_id"`

	// Analysis is the analysis text: the record content if it was a
	// string, otherwise its compact JSON form.
	Analysis string `json:"analysis" yaml:"analysis"`
}

// ExtractionResult is the digest artifact written for one trace. Every
// sequence preserves the order records appear in the input; nothing is
// deduplicated or sorted.
type ExtractionResult struct {
	// SourceFile echoes the virtual path of the input trace.
	SourceFile string `json:"source_file" yaml:"source_file"`

	// UserGoal is the client's opening request, empty if not found.
	UserGoal string `json:"user_goal" yaml:"user_goal"`

	// GatheredFacts holds one FactBlock per search record, in input order.
	GatheredFacts []FactBlock `json:"gathered_facts" yaml:"gathered_facts"`

	// PreviousAnalyses holds one AnalysisStep per analyze-type server
	// record, in input order.
	PreviousAnalyses []AnalysisStep `json:"previous_analyses" yaml:"previous_analyses"`

	// LinksToText holds one formatted line per citation across all search
	// records, in input then citation order.
	LinksToText []string `json:"links_to_text" yaml:"links_to_text"`
}
