// Package errs defines the error taxonomy shared by every package in
// this module. It is factored out of the root package so that leaf
// packages (pattern, diffengine, workflow, ...) can construct typed
// errors without an import cycle back through the root package.
package errs

import "fmt"

// LeChangeError is the marker interface satisfied by every error type
// this module returns. Callers distinguish concrete kinds with
// errors.As, mirroring the Python binding's exception hierarchy
// (LeChangeError as the common ancestor of GitError, ConfigError, ...).
type LeChangeError interface {
	error
	leChangeError()
}

// PathError reports a repository path that does not exist or is not a
// git repository.
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path error: %s: %s", e.Path, e.Message)
}

func (e *PathError) leChangeError() {}

// GitError reports a revision-resolution, object-read, or diff
// computation failure.
type GitError struct {
	Message string
	Cause   error
}

func (e *GitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("git error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("git error: %s", e.Message)
}

func (e *GitError) leChangeError() {}

func (e *GitError) Unwrap() error { return e.Cause }

// ConfigError reports an invalid pattern or a malformed Config
// combination.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) leChangeError() {}

// YamlError reports a pattern-group YAML parse failure.
type YamlError struct {
	Message string
	Cause   error
}

func (e *YamlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("yaml error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("yaml error: %s", e.Message)
}

func (e *YamlError) leChangeError() {}

func (e *YamlError) Unwrap() error { return e.Cause }

// RecoveryError reports a FileRecovery failure.
type RecoveryError struct {
	Revision string
	Path     string
	Cause    error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("recovery error: %s:%s: %v", e.Revision, e.Path, e.Cause)
}

func (e *RecoveryError) leChangeError() {}

func (e *RecoveryError) Unwrap() error { return e.Cause }

// RuntimeError reports a transport, cancellation, or other unexpected
// failure that is not attributable to a more specific category.
type RuntimeError struct {
	Message string
	Cause   error
}

func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("runtime error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("runtime error: %s", e.Message)
}

func (e *RuntimeError) leChangeError() {}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// ShallowCloneError reports that a resolved revision lies at or beyond
// the shallow-clone boundary.
type ShallowCloneError struct {
	Revision string
	Message  string
}

func (e *ShallowCloneError) Error() string {
	return fmt.Sprintf("shallow clone error: %s: %s", e.Revision, e.Message)
}

func (e *ShallowCloneError) leChangeError() {}
