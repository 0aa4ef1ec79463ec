// Package settings loads the optional tool-level spv.yaml file.
//
// This is configuration about the tool itself (where the cache lives, how
// chatty the logs are), not about any particular shader crate; per-crate
// build and install parameters come from the crate's own manifest and the
// command line.
package settings

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the settings file looked up in the working directory
// and in the user config directory.
const DefaultFilename = "spv.yaml"

// Settings represents the structure of the spv.yaml file.
type Settings struct {
	// CacheRoot overrides the default per-user cache directory.
	CacheRoot string `yaml:"cache-root"`

	// Verbose enables debug logging without passing --verbose.
	Verbose bool `yaml:"verbose"`
}

// Load reads settings from the given working directory, falling back to the
// user config directory. A missing file is not an error; defaults apply.
func Load(cwd string) (Settings, error) {
	paths := []string{filepath.Join(cwd, DefaultFilename)}
	if confDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(confDir, "spv", DefaultFilename))
	}

	for _, path := range paths {
		s, err := loadFile(path)
		if err == nil {
			return s, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return Settings{}, err
	}
	return Settings{}, nil
}

// ResolveCacheRoot returns the cache directory to use: the configured
// override, or the per-user cache directory.
func (s Settings) ResolveCacheRoot() (string, error) {
	if s.CacheRoot != "" {
		return s.CacheRoot, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", zerr.Wrap(err, "could not find the user cache directory")
	}
	return filepath.Join(base, "spv"), nil
}

func loadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from user dirs
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, zerr.Wrap(err, "failed to parse settings file")
	}
	return s, nil
}
