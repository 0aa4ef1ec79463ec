package domain

import (
	"path/filepath"
	"strings"
)

// ShaderModule is one compiled entry point as reported by the driver in its
// raw manifest. Records are consumed once translated into Linkage records and
// the raw manifest is deleted.
type ShaderModule struct {
	Entry string `json:"entry"`
	Path  string `json:"path"`
}

// Linkage is the externally published record mapping a compiled artifact to
// its entry point. The final manifest is a JSON array of these, sorted by
// (SourcePath, EntryPoint).
type Linkage struct {
	SourcePath     string `json:"source_path"`
	EntryPoint     string `json:"entry_point"`
	WGSLEntryPoint string `json:"wgsl_entry_point"`
}

// NewLinkage builds a Linkage from an entry point name and the artifact path
// relative to the shader crate. Paths always use forward slashes so manifests
// are portable across operating systems.
func NewLinkage(entryPoint, sourcePath string) Linkage {
	return Linkage{
		SourcePath:     filepath.ToSlash(sourcePath),
		EntryPoint:     entryPoint,
		WGSLEntryPoint: strings.ReplaceAll(entryPoint, "::", ""),
	}
}

// FnName returns the bare function name of the entry point, without its
// module path.
func (l Linkage) FnName() string {
	parts := strings.Split(l.EntryPoint, "::")
	return parts[len(parts)-1]
}

// CompareLinkage orders Linkage records by (SourcePath, EntryPoint) for
// deterministic manifest output.
func CompareLinkage(a, b Linkage) int {
	if c := strings.Compare(a.SourcePath, b.SourcePath); c != 0 {
		return c
	}
	return strings.Compare(a.EntryPoint, b.EntryPoint)
}
