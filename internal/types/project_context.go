package types

import (
	"strings"
	"time"
)

// ProjectContext is a read-only inventory of the target codebase, rebuilt at
// the start of every run.
type ProjectContext struct {
	Root         string           `json:"root"`
	Tables       []string         `json:"tables"`
	Routes       []string         `json:"routes"`
	Components   []string         `json:"components"`
	Files        []string         `json:"files"`
	FileSizes    map[string]int64 `json:"file_sizes,omitempty"`
	Capabilities []string         `json:"capabilities"`
	EnvKeys      []string         `json:"env_keys,omitempty"`
	APIRoutes    []string         `json:"api_routes,omitempty"`
	Skipped      []string         `json:"skipped,omitempty"`
	ReadAt       time.Time        `json:"read_at"`
}

// HasTable reports whether a table with the given name exists, ignoring case.
func (pc *ProjectContext) HasTable(name string) bool {
	return containsFold(pc.Tables, name)
}

// HasComponent reports whether a component with the given name exists, ignoring case.
func (pc *ProjectContext) HasComponent(name string) bool {
	return containsFold(pc.Components, name)
}

// HasCapability reports whether a package or capability is installed.
func (pc *ProjectContext) HasCapability(name string) bool {
	return containsFold(pc.Capabilities, name)
}

// HasEnv reports whether an environment key is configured for the project.
func (pc *ProjectContext) HasEnv(key string) bool {
	for _, k := range pc.EnvKeys {
		if k == key {
			return true
		}
	}
	return false
}

// HasFile reports whether the project-relative path exists.
func (pc *ProjectContext) HasFile(path string) bool {
	for _, f := range pc.Files {
		if f == path {
			return true
		}
	}
	return false
}

// FileSize returns the size of a project-relative file.
func (pc *ProjectContext) FileSize(path string) (int64, bool) {
	size, ok := pc.FileSizes[path]
	return size, ok
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
