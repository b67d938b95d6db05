package lechange

import "github.com/lituus-io/le-change-go/errs"

// The error taxonomy lives in package errs so leaf packages can
// construct it without importing the root package. These aliases keep
// the public surface at lechange.GitError etc., matching the Python
// binding's LeChangeError/GitError/ConfigError/... hierarchy.
type (
	LeChangeError     = errs.LeChangeError
	PathError         = errs.PathError
	GitError          = errs.GitError
	ConfigError       = errs.ConfigError
	YamlError         = errs.YamlError
	RecoveryError     = errs.RecoveryError
	RuntimeError      = errs.RuntimeError
	ShallowCloneError = errs.ShallowCloneError
)
