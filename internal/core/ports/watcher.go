package ports

import (
	"context"
	"iter"
)

// WatchOp identifies the kind of file system change.
type WatchOp int

// Watch operations.
const (
	OpWrite WatchOp = iota
	OpCreate
	OpRemove
	OpRename
)

// WatchEvent is a single file system change under the watched root.
type WatchEvent struct {
	Path      string
	Operation WatchOp
}

// Watcher observes a directory tree for source changes in watch mode.
type Watcher interface {
	// Start begins watching the given root directory recursively.
	Start(ctx context.Context, root string) error

	// Stop stops the watcher and releases all resources.
	Stop() error

	// Events returns an iterator of file system events.
	Events() iter.Seq[WatchEvent]
}
