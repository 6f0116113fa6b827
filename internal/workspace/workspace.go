// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace maps virtual trace paths onto a sandboxed root
// directory. Virtual paths look like "/workspace/run.json" or plain
// "run.json"; both resolve to files under the configured root, and paths
// that would escape the root are rejected.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/trace-digest/pkg/types"
)

// VirtualRoot is the logical prefix clients use in virtual paths.
const VirtualRoot = "/workspace"

// Resolver maps virtual paths to concrete filesystem locations under a
// single root directory.
type Resolver struct {
	root string
}

// NewResolver returns a Resolver rooted at cfg.Root, defaulting to
// "workspace" when unset.
func NewResolver(cfg types.WorkspaceConfig) *Resolver {
	root := cfg.Root
	if root == "" {
		root = "workspace"
	}
	return &Resolver{root: root}
}

// Root returns the concrete root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve maps a virtual path to a concrete location under the root.
// The optional "/workspace" prefix is stripped; the remainder is cleaned
// and joined to the root. Empty paths and paths that escape the root
// fail.
func (r *Resolver) Resolve(virtual string) (string, error) {
	if strings.TrimSpace(virtual) == "" {
		return "", fmt.Errorf("empty virtual path")
	}

	rel := virtual
	if rel == VirtualRoot || strings.HasPrefix(rel, VirtualRoot+"/") {
		rel = strings.TrimPrefix(rel, VirtualRoot)
	}
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return r.root, nil
	}

	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace root", virtual)
	}

	return filepath.Join(r.root, cleaned), nil
}

// EnsureParent creates the parent directories of path recursively.
func (r *Resolver) EnsureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// Virtualize converts a concrete path under the root back to its virtual
// form. Paths outside the root are returned unchanged.
func (r *Resolver) Virtualize(path string) string {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	if rel == "." {
		return VirtualRoot
	}
	return VirtualRoot + "/" + filepath.ToSlash(rel)
}
