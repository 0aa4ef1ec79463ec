package domain

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// RustGPURepo is the canonical repository of the rust-gpu backend. It is used
// when the shader crate pins a plain registry version of spirv-std.
const RustGPURepo = "https://github.com/Rust-GPU/rust-gpu"

// Source describes where the rust-gpu backend dependency comes from.
// Most commonly this is a plain crates.io version, but it can also be a git
// repository at a specific revision or a local path. Values are immutable
// after construction.
type Source interface {
	// Render returns the canonical display string "{origin}+{version-or-rev}".
	// Distinct sources must render distinctly; the rendered string feeds the
	// cache-key derivation.
	Render() string

	// Version returns the version, revision or commitish that git can check out.
	Version() string

	// Repo returns the repository URL or local path to clone the backend from.
	Repo() string
}

// Registry is a crates.io version of spirv-std, e.g. "v0.9.0".
type Registry struct {
	Ver string
}

// Render implements Source.
func (r Registry) Render() string { return r.Ver }

// Version implements Source.
func (r Registry) Version() string { return r.Ver }

// Repo implements Source.
func (r Registry) Repo() string { return RustGPURepo }

// Git is a git dependency, e.g. `spirv-std = { git = "...", rev = "..." }`.
type Git struct {
	URL string
	Rev string
}

// Render implements Source.
func (g Git) Render() string { return g.URL + "+" + g.Rev }

// Version implements Source.
func (g Git) Version() string { return g.Rev }

// Repo implements Source.
func (g Git) Repo() string { return g.URL }

// Local is a path dependency, e.g. `spirv-std = { path = "..." }`.
type Local struct {
	Path string
	Ver  string
}

// Render implements Source.
func (l Local) Render() string { return l.Path + "+" + l.Ver }

// Version implements Source.
func (l Local) Version() string { return l.Ver }

// Repo implements Source.
func (l Local) Repo() string { return l.Path }

// Dirname converts a rendered identity into a single directory name that is
// safe on every supported filesystem.
//
// The sanitized identity keeps the name human-readable, and the hash suffix
// keeps the mapping injective: sanitization folds several characters into
// '_', so two different identities could otherwise share a cache slot.
func Dirname(identity string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', ':', '@', '=':
			return '_'
		case '{', '}', ' ', '\n', '"', '\'':
			return -1
		default:
			return r
		}
	}, identity)
	return fmt.Sprintf("%s-%08x", sanitized, xxhash.Sum64String(identity)&0xffffffff)
}

// CacheKey derives the cache directory name for a (source, channel) pair.
func CacheKey(src Source, channel string) string {
	return Dirname(src.Render() + "+" + channel)
}
