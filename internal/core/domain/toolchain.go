package domain

import "time"

// Toolchain is the fully resolved backend dependency: where the backend comes
// from, the rust toolchain channel it must be built with, and the release date
// of the pinned backend version.
//
// It is constructed once per invocation by the resolver and read-only
// afterwards. The release date gates which driver interface generation is
// selected when the backend is built.
type Toolchain struct {
	Source      Source
	Channel     string
	ReleaseDate time.Time
}

// String renders the toolchain identity, e.g.
// "https://github.com/Rust-GPU/rust-gpu+82a0f69+nightly-2024-04-24".
func (t Toolchain) String() string {
	return t.Source.Render() + "+" + t.Channel
}

// CacheKey returns the filesystem-safe cache directory name for this toolchain.
func (t Toolchain) CacheKey() string {
	return CacheKey(t.Source, t.Channel)
}
