package resolver

import (
	"net/url"
	"strings"

	"go.trai.ch/spv/internal/core/domain"
	"go.trai.ch/zerr"
)

// ParseDependencyLine parses one line of the package manager's tree-style
// output into a backend source, e.g.
//
//	spirv-std v0.9.0 (https://github.com/Rust-GPU/rust-gpu?rev=54f6978c#54f6978c) (*)
//
// Token 1 is the version. A third token with a URL scheme is a git source; a
// schemeless third token is a local path; no third token means the plain
// registry version.
func ParseDependencyLine(line string) (domain.Source, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return nil, zerr.With(zerr.Wrap(domain.ErrMalformedSourceDescriptor, "expected at least a name and a version"), "line", line)
	}
	version := parts[1]

	if len(parts) < 3 {
		return domain.Registry{Ver: version}, nil
	}

	origin := strings.Trim(parts[2], "()")
	if origin == "" || origin == "*" {
		// "(*)" is the package manager's de-duplication marker, not a source.
		return domain.Registry{Ver: version}, nil
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" {
		return domain.Local{Path: origin, Ver: version}, nil
	}

	return domain.Git{
		URL: parsed.Scheme + "://" + parsed.Host + parsed.Path,
		Rev: gitRevision(parsed.RawQuery, parsed.Fragment, version),
	}, nil
}

// gitRevision decides the git revision, in priority order: a rev= query
// parameter, the URI fragment, the version token.
func gitRevision(query, fragment, version string) string {
	const marker = "rev="
	// Only trust the query when it is exactly one rev=... pair.
	if strings.Contains(query, marker) && strings.Count(query, "=") == 1 {
		return strings.TrimPrefix(query, marker)
	}
	if fragment != "" {
		return fragment
	}
	return version
}
