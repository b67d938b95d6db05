// Package gitexec shells the git binary with credential-censoring
// logging, the one production code path the teacher repo actually
// exercises (its declared go-git dependency is never imported outside
// a single test helper). Every call threads a context.Context down to
// the subprocess, so a cancelled or timed-out detector call kills the
// in-flight git process instead of running it to completion.
package gitexec

import (
	"context"
	"net/url"
	"os/exec"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// Executor runs git commands rooted at one working directory.
type Executor interface {
	// Run is shorthand for RunContext(context.Background(), args...).
	Run(args ...string) ([]byte, error)
	// RunContext runs git with args, killing the subprocess the moment
	// ctx is done.
	RunContext(ctx context.Context, args ...string) ([]byte, error)
	Dir() string
}

// Censor removes secrets from command output before it is logged or
// returned to callers.
type Censor func(content []byte) []byte

var credentialURLRegex = regexp.MustCompile(`(https?://[^:]+:)([^@]+)(@[^/\s:]+(?::[0-9]+)?)`)

// bearerTokenRegex redacts `Bearer <token>`-shaped substrings. The
// workflow correlation clients this module shells out alongside git
// pass CI provider tokens this way, a leak the teacher's URL-only
// censor never had to cover.
var bearerTokenRegex = regexp.MustCompile(`(?i)(bearer\s+)(\S+)`)

func censorURLCredentials(s string) string {
	if u, err := url.Parse(s); err == nil && u.User != nil {
		return u.Redacted()
	}
	return credentialURLRegex.ReplaceAllString(s, "${1}xxxxx${3}")
}

func censorBearerTokens(s string) string {
	return bearerTokenRegex.ReplaceAllString(s, "${1}xxxxx")
}

func censorSecrets(s string) string {
	return censorBearerTokens(censorURLCredentials(s))
}

// NewCensoringExecutor resolves the git binary on PATH and returns an
// Executor rooted at dir.
func NewCensoringExecutor(dir string, censor Censor, logger *logrus.Entry) (Executor, error) {
	g, err := exec.LookPath("git")
	if err != nil {
		return nil, err
	}
	if censor == nil {
		censor = func(content []byte) []byte { return content }
	}
	return &censoringExecutor{
		logger: logger.WithField("client", "git"),
		dir:    dir,
		git:    g,
		censor: censor,
		run:    defaultRun,
	}, nil
}

type censoringExecutor struct {
	logger *logrus.Entry
	dir    string
	git    string
	censor Censor
	run    func(ctx context.Context, dir, command string, args ...string) ([]byte, error)
}

func defaultRun(ctx context.Context, dir, command string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, command, args...)
	c.Dir = dir
	return c.CombinedOutput()
}

func (e *censoringExecutor) Dir() string { return e.dir }

func (e *censoringExecutor) Run(args ...string) ([]byte, error) {
	return e.RunContext(context.Background(), args...)
}

func (e *censoringExecutor) RunContext(ctx context.Context, args ...string) ([]byte, error) {
	censoredArgs := make([]string, len(args))
	for i, arg := range args {
		censoredArgs[i] = censorSecrets(arg)
	}

	logger := e.logger.WithField("args", strings.Join(censoredArgs, " "))

	b, err := e.run(ctx, e.dir, e.git, args...)
	b = e.censor(b)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logger.WithError(ctxErr).Debug("Running command was cancelled.")
		} else {
			logger.WithError(err).WithField("output", string(b)).Debug("Running command failed.")
		}
	} else {
		logger.Debug("Running command succeeded.")
	}
	return b, err
}
