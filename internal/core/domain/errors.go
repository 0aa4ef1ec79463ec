package domain

import "go.trai.ch/zerr"

var (
	// ErrMalformedSourceDescriptor is returned when a dependency line from the
	// package manager cannot be parsed into a backend source.
	ErrMalformedSourceDescriptor = zerr.New("malformed source descriptor")

	// ErrPackageNotFound is returned when the given path is not a valid shader crate directory.
	ErrPackageNotFound = zerr.New("shader crate not found")

	// ErrDependencyNotDeclared is returned when the shader crate does not depend on spirv-std.
	ErrDependencyNotDeclared = zerr.New("spirv-std dependency not declared")

	// ErrCheckoutFailed is returned when the backend repository cannot be cloned or checked out.
	ErrCheckoutFailed = zerr.New("backend checkout failed")

	// ErrToolchainDeclarationMissing is returned when the backend checkout has no
	// usable rust-toolchain.toml.
	ErrToolchainDeclarationMissing = zerr.New("toolchain declaration missing")

	// ErrUnknownConfigPath is returned when a config layer references a path that
	// does not exist in the default configuration.
	ErrUnknownConfigPath = zerr.New("unknown configuration path")

	// ErrBackendBuildFailed is returned when building the backend binary pair fails
	// or the expected artifacts are not produced.
	ErrBackendBuildFailed = zerr.New("backend build failed")

	// ErrUnrecognizedLockfileFormat is returned when a lockfile declares a format
	// version that is neither the old nor the new known format.
	ErrUnrecognizedLockfileFormat = zerr.New("unrecognized lockfile format")

	// ErrLockfilePatchingNotAuthorized is returned when an incompatible lockfile is
	// found but the user has not opted into the rewrite workaround.
	ErrLockfilePatchingNotAuthorized = zerr.New("lockfile patching not authorized")

	// ErrDriverExecutionFailed is returned when the driver executable exits nonzero.
	ErrDriverExecutionFailed = zerr.New("driver execution failed")

	// ErrManifestMissing is returned when the driver did not produce its raw manifest.
	ErrManifestMissing = zerr.New("raw shader manifest missing")

	// ErrUserDeclined signals that the user rejected a consent prompt.
	// It terminates the invocation cleanly, distinct from a failure.
	ErrUserDeclined = zerr.New("user declined")
)
