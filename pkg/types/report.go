// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Status classifies the outcome of a processing run.
type Status string

const (
	StatusSuccess Status = "success"

	// StatusPartialSuccess means extraction completed but the digest
	// could not be persisted; the extracted data is still returned.
	StatusPartialSuccess Status = "partial_success"

	StatusError Status = "error"
)

// DataPreview is the small success summary attached to a Report.
type DataPreview struct {
	// Goal is the extracted user goal.
	Goal string `json:"goal" yaml:"goal"`

	// FactsCount is the number of gathered facts.
	FactsCount int `json:"facts_count" yaml:"facts_count"`
}

// Report is the status payload returned for every processing run. Exactly
// one field group is populated, selected by Status:
//
//	error:           Error
//	partial_success: ExtractedData, SaveError
//	success:         Message, SavedPath, DataPreview
type Report struct {
	Status Status `json:"status" yaml:"status"`

	// Error is the failure message for status "error".
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// ExtractedData carries the full extraction result when persistence
	// failed after a successful extraction.
	ExtractedData *ExtractionResult `json:"extracted_data,omitempty" yaml:"extracted_data,omitempty"`

	// SaveError is the persistence failure message for status "partial_success".
	SaveError string `json:"save_error,omitempty" yaml:"save_error,omitempty"`

	// Message is the human-readable success line.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// SavedPath is the virtual path the digest was written to.
	SavedPath string `json:"saved_path,omitempty" yaml:"saved_path,omitempty"`

	// DataPreview summarizes the extraction on success.
	DataPreview *DataPreview `json:"data_preview,omitempty" yaml:"data_preview,omitempty"`
}
