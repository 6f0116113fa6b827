// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// WorkspaceConfig holds settings for the virtual path sandbox.
type WorkspaceConfig struct {
	// Root is the concrete directory backing the /workspace virtual root
	// (default "workspace").
	Root string `json:"root" yaml:"root"`
}

// HistoryConfig holds settings for the processing-run history index.
type HistoryConfig struct {
	// IndexDir is the directory holding the history database and exports
	// (default "index").
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ProcessConfig groups the settings the process command needs.
type ProcessConfig struct {
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace"`

	// IndexEnabled controls whether successful runs are recorded in the
	// history index.
	IndexEnabled bool `json:"index_enabled" yaml:"index_enabled"`
}
