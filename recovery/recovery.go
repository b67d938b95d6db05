// Package recovery extracts a file blob at a revision to an output
// directory without mutating the repository, built on the same
// executor idiom repo and diffengine use.
package recovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lituus-io/le-change-go/errs"
	"github.com/lituus-io/le-change-go/gitexec"
)

// RecoverFile is shorthand for
// RecoverFileContext(context.Background(), exec, revHex, repoRelPath, outputDir).
func RecoverFile(exec gitexec.Executor, revHex, repoRelPath, outputDir string) (string, error) {
	return RecoverFileContext(context.Background(), exec, revHex, repoRelPath, outputDir)
}

// RecoverFileContext reads the blob at revHex:repoRelPath and writes it
// under outputDir, preserving the relative path, aborting the
// underlying git subprocess the moment ctx is done.
func RecoverFileContext(ctx context.Context, exec gitexec.Executor, revHex, repoRelPath, outputDir string) (string, error) {
	out, err := exec.RunContext(ctx, "show", fmt.Sprintf("%s:%s", revHex, repoRelPath))
	if err != nil {
		return "", &errs.RecoveryError{Revision: revHex, Path: repoRelPath, Cause: fmt.Errorf("%s", string(out))}
	}

	written := filepath.Join(outputDir, repoRelPath)
	if err := os.MkdirAll(filepath.Dir(written), 0o755); err != nil {
		return "", &errs.RecoveryError{Revision: revHex, Path: repoRelPath, Cause: err}
	}
	if err := os.WriteFile(written, out, 0o644); err != nil {
		return "", &errs.RecoveryError{Revision: revHex, Path: repoRelPath, Cause: err}
	}

	return written, nil
}
