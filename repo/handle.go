// Package repo opens a git repository and resolves revisions against
// it, tracking the shallow-clone boundary the same way
// prow/git/v2/interactor.go's RevParse/ObjectExists do, but shelled
// through gitexec rather than a persistent clone manager.
package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lituus-io/le-change-go/diag"
	"github.com/lituus-io/le-change-go/errs"
	"github.com/lituus-io/le-change-go/gitexec"
)

// Handle is an open repository. One Handle serves at most one diff in
// flight at a time (spec §5: "reentrant and thread-safe per
// RepoHandle"); callers needing concurrency open multiple handles.
type Handle struct {
	exec        gitexec.Executor
	shallow     bool
	boundary    map[string]struct{}
	diagnostics []diag.Diagnostic
}

// Open validates that path is a git repository (or worktree) and
// returns a Handle rooted there.
func Open(path string, logger *logrus.Entry) (*Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &errs.PathError{Path: path, Message: "path does not exist"}
	}
	if !info.IsDir() {
		return nil, &errs.PathError{Path: path, Message: "path is not a directory"}
	}

	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	exec, err := gitexec.NewCensoringExecutor(path, nil, logger)
	if err != nil {
		return nil, &errs.PathError{Path: path, Message: "git binary not found: " + err.Error()}
	}

	if out, err := exec.Run("rev-parse", "--git-dir"); err != nil {
		return nil, &errs.PathError{Path: path, Message: "not a git repository: " + strings.TrimSpace(string(out))}
	}

	h := &Handle{exec: exec}
	h.loadShallowBoundary()
	return h, nil
}

// Dir is the repository's working directory.
func (h *Handle) Dir() string {
	return h.exec.Dir()
}

func (h *Handle) loadShallowBoundary() {
	shallowFile := filepath.Join(h.exec.Dir(), ".git", "shallow")
	data, err := os.ReadFile(shallowFile)
	if err != nil {
		return
	}
	h.shallow = true
	h.boundary = make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			h.boundary[line] = struct{}{}
		}
	}
}

// IsShallow reports whether the repository is a shallow clone.
func (h *Handle) IsShallow() bool {
	return h.shallow
}

// ShallowBoundary returns the set of commit hashes at which history
// truncates. Empty when IsShallow is false.
func (h *Handle) ShallowBoundary() map[string]struct{} {
	return h.boundary
}

// Resolve is shorthand for ResolveContext(context.Background(), rev).
func (h *Handle) Resolve(rev string) (string, error) {
	return h.ResolveContext(context.Background(), rev)
}

// ResolveContext resolves rev (hex, symbolic, or HEAD-relative) to a
// 40-char lowercase hex commit hash. When the resolved commit lies at
// the shallow-clone boundary, it records a shallow_boundary diagnostic
// on the handle (retrievable via Diagnostics) and returns a
// ShallowCloneError alongside the resolved hash.
func (h *Handle) ResolveContext(ctx context.Context, rev string) (string, error) {
	out, err := h.exec.RunContext(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", &errs.GitError{Message: fmt.Sprintf("unknown or ambiguous revision %q", rev), Cause: err}
	}
	hex := strings.TrimSpace(string(out))

	if h.shallow {
		if _, atBoundary := h.boundary[hex]; atBoundary {
			msg := fmt.Sprintf("revision %s lies at the shallow boundary", hex)
			h.diagnostics = append(h.diagnostics, diag.NewWithDetail(diag.CategoryShallowBoundary, msg, map[string]string{"requested_rev": rev}))
			return hex, &errs.ShallowCloneError{Revision: hex, Message: "revision lies at the shallow boundary"}
		}
	}

	return hex, nil
}

// Diagnostics returns every diagnostic this handle has recorded across
// its lifetime (currently: shallow_boundary hits from Resolve).
func (h *Handle) Diagnostics() []diag.Diagnostic {
	return h.diagnostics
}

// ObjectExists reports whether sha names an object present in the
// local object store, the same non-erroring "cat-file -e" probe
// prow/git/v2/interactor.go uses.
func (h *Handle) ObjectExists(sha string) bool {
	_, err := h.exec.Run("cat-file", "-e", sha)
	return err == nil
}

// Executor exposes the underlying command runner for sibling packages
// (diffengine, recovery) that need to issue further git subcommands
// against this same repository.
func (h *Handle) Executor() gitexec.Executor {
	return h.exec
}
