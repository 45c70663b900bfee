// Package integration writes generated artifacts into the target project
// tree and registers new endpoints in the project's central registry.
package integration

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/jonathan/module-builder/internal/types"
)

// Operation is what a FileOp does to its path.
type Operation string

// File operations.
const (
	OpWrite        Operation = "write"
	OpInsertBefore Operation = "insert_before"
)

// DefaultRegistryFile is the project-relative endpoint registry.
const DefaultRegistryFile = "lib/modules/registry.ts"

// RegistryMarker marks where new registry entries are inserted.
const RegistryMarker = "// END MODULE REGISTRY MARKER"

// FileOp describes one change to the project tree.
type FileOp struct {
	Path      string    `json:"path"`
	Operation Operation `json:"operation"`
	Content   string    `json:"-"`
	// Snippet and InsertAt apply to OpInsertBefore. Content is used instead
	// when the file does not exist yet.
	Snippet  string `json:"-"`
	InsertAt string `json:"insert_at,omitempty"`
	// Key skips the insertion when the file already contains it.
	Key string `json:"key,omitempty"`
}

// PlanWrites turns artifacts with a target path into write operations, in
// artifact order.
func PlanWrites(artifacts []types.Artifact) []FileOp {
	var ops []FileOp
	for _, a := range artifacts {
		if a.TargetPath == "" {
			continue
		}
		ops = append(ops, FileOp{Path: path.Clean(a.TargetPath), Operation: OpWrite, Content: a.Content})
	}
	return ops
}

// RegistryOp builds the insertion of the Blueprint's entry into the endpoint
// registry at registryFile.
func RegistryOp(registryFile string, bp *types.Blueprint, artifacts []types.Artifact) FileOp {
	if registryFile == "" {
		registryFile = DefaultRegistryFile
	}
	var endpoints []string
	for _, a := range artifacts {
		if a.Kind != types.ArtifactEndpoint || a.TargetPath == "" {
			continue
		}
		url := strings.TrimSuffix(strings.TrimPrefix(a.TargetPath, "app"), "/route.ts")
		endpoints = append(endpoints, "'"+url+"'")
	}
	sort.Strings(endpoints)

	key := quote(bp.ID) + ":"
	entry := fmt.Sprintf("  %s { name: %s, endpoints: [%s] },\n", key, quote(bp.Name), strings.Join(endpoints, ", "))

	return FileOp{
		Path:      registryFile,
		Operation: OpInsertBefore,
		Snippet:   entry,
		InsertAt:  RegistryMarker,
		Key:       key,
		Content: "// Central registry of feature modules and their endpoints.\n" +
			"export const moduleRegistry = {\n" + entry + "  " + RegistryMarker + "\n};\n",
	}
}

func quote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}
