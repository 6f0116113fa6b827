// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trace-digest/pkg/types"
)

func TestResolve(t *testing.T) {
	r := NewResolver(types.WorkspaceConfig{Root: "sandbox"})

	tests := []struct {
		name    string
		virtual string
		want    string
		errMsg  string
	}{
		{
			name:    "virtual root prefix",
			virtual: "/workspace/run.json",
			want:    filepath.Join("sandbox", "run.json"),
		},
		{
			name:    "nested virtual path",
			virtual: "/workspace/traces/day1/run.json",
			want:    filepath.Join("sandbox", "traces", "day1", "run.json"),
		},
		{
			name:    "bare relative path",
			virtual: "run.json",
			want:    filepath.Join("sandbox", "run.json"),
		},
		{
			name:    "leading slash without workspace prefix",
			virtual: "/run.json",
			want:    filepath.Join("sandbox", "run.json"),
		},
		{
			name:    "virtual root itself",
			virtual: "/workspace",
			want:    "sandbox",
		},
		{
			name:    "dot segments collapse inside root",
			virtual: "/workspace/traces/../run.json",
			want:    filepath.Join("sandbox", "run.json"),
		},
		{
			name:    "empty path",
			virtual: "",
			errMsg:  "empty virtual path",
		},
		{
			name:    "whitespace only",
			virtual: "   ",
			errMsg:  "empty virtual path",
		},
		{
			name:    "escape via parent segments",
			virtual: "../outside.json",
			errMsg:  "escapes the workspace root",
		},
		{
			name:    "escape from under the prefix",
			virtual: "/workspace/../../etc/passwd",
			errMsg:  "escapes the workspace root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.virtual)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewResolverDefaultRoot(t *testing.T) {
	r := NewResolver(types.WorkspaceConfig{})
	assert.Equal(t, "workspace", r.Root())
}

func TestEnsureParent(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(types.WorkspaceConfig{Root: root})

	path, err := r.Resolve("/workspace/deep/nested/out.json")
	require.NoError(t, err)

	require.NoError(t, r.EnsureParent(path))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestVirtualize(t *testing.T) {
	r := NewResolver(types.WorkspaceConfig{Root: "sandbox"})

	assert.Equal(t, "/workspace/run.json", r.Virtualize(filepath.Join("sandbox", "run.json")))
	assert.Equal(t, "/workspace/a/b.json", r.Virtualize(filepath.Join("sandbox", "a", "b.json")))
	assert.Equal(t, "/workspace", r.Virtualize("sandbox"))

	// Paths outside the root come back unchanged.
	assert.Equal(t, "/etc/passwd", r.Virtualize("/etc/passwd"))
}
