package types

// ArtifactKind is the kind of generated output.
type ArtifactKind string

// Artifact kinds.
const (
	ArtifactMigration ArtifactKind = "migration"
	ArtifactContracts ArtifactKind = "contracts"
	ArtifactEndpoint  ArtifactKind = "endpoint"
	ArtifactHook      ArtifactKind = "hook"
	ArtifactComponent ArtifactKind = "component"
	ArtifactPage      ArtifactKind = "page"
	ArtifactTest      ArtifactKind = "test"
	ArtifactConfig    ArtifactKind = "config"
	ArtifactDocs      ArtifactKind = "docs"
)

// Artifact is one generated file. Path is relative to the Blueprint's output
// directory; TargetPath is relative to the target project root and empty when
// the artifact stays in the output directory.
type Artifact struct {
	Kind       ArtifactKind `json:"kind"`
	Step       string       `json:"step,omitempty"`
	Path       string       `json:"path"`
	TargetPath string       `json:"target_path,omitempty"`
	Content    string       `json:"-"`
	Digest     string       `json:"digest"`
}
