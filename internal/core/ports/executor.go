// Package ports defines the core interfaces for the application.
package ports

import "context"

// Command describes a single external process invocation.
type Command struct {
	// Name is the executable to run, resolved via PATH when not absolute.
	Name string

	// Args are the command arguments, excluding the executable name.
	Args []string

	// Dir is the working directory for the process. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the inherited environment.
	// Toolchain selection is passed here or in Args, never via global mutation.
	Env []string
}

// Executor runs external commands. All calls block until the child process
// exits; cancellation is driven by the context only.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Run executes cmd with stdout and stderr streamed through for visibility.
	// A nonzero exit status is returned as an error carrying the exit code.
	Run(ctx context.Context, cmd Command) error

	// Output executes cmd and returns its captured stdout.
	// Stderr is streamed through. A nonzero exit status is an error.
	Output(ctx context.Context, cmd Command) ([]byte, error)
}
