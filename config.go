package lechange

import (
	"fmt"

	"github.com/lituus-io/le-change-go/pattern"
)

// Config is the exact option enumeration of spec §6, constructed once
// per call the way the Python binding's Config(...) is built per call
// to get_changed_files. Unknown option combinations are rejected at
// NewConfig time rather than at call time.
type Config struct {
	Base string
	Head string

	Files       []string
	FilesIgnore []string
	FilesYAML   string

	NegationFirst bool

	JSON                        bool
	DirNames                    bool
	UsePOSIXPathSeparator       bool
	OutputRenamedAsDeletedAdded bool
	SkipSameSHA                 bool

	RenameDetectionEnabled bool
	MinSimilarity          int
	IncludeTypeChanges     bool

	Token                  string
	TrackWorkflowFailures  bool
	SkipSuccessfulFiles    bool
	WaitForActiveWorkflows bool
	WorkflowMaxWaitSeconds int
	WorkflowNameFilter     string

	compiledFiles *pattern.Matcher
	compiledGroups []pattern.Group
}

// NewConfig validates cfg and compiles its include/exclude/group
// patterns once, attaching them the way prow/config/jobs.go's
// RegexpChangeMatcher attaches a compiled *regexp.Regexp to its struct
// after construction.
func NewConfig(cfg Config) (*Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	specs := make([]pattern.Spec, 0, len(cfg.Files)+len(cfg.FilesIgnore))
	for _, f := range cfg.Files {
		specs = append(specs, pattern.Spec{Polarity: pattern.Include, Pattern: f})
	}
	for _, f := range cfg.FilesIgnore {
		specs = append(specs, pattern.Spec{Polarity: pattern.Exclude, Pattern: f})
	}

	matcher, err := pattern.Compile(specs, cfg.NegationFirst)
	if err != nil {
		return nil, err
	}
	cfg.compiledFiles = matcher

	if cfg.FilesYAML != "" {
		groups, err := pattern.LoadGroups(cfg.FilesYAML, cfg.NegationFirst)
		if err != nil {
			return nil, err
		}
		cfg.compiledGroups = groups
	}

	return &cfg, nil
}

// Validate rejects malformed Config combinations with a ConfigError.
func (c *Config) Validate() error {
	if c.Base == "" {
		return &ConfigError{Message: "base revision is required"}
	}
	if c.Head == "" {
		return &ConfigError{Message: "head revision is required"}
	}
	if c.MinSimilarity < 0 || c.MinSimilarity > 100 {
		return &ConfigError{Message: fmt.Sprintf("min_similarity must be in [0,100], got %d", c.MinSimilarity)}
	}
	if c.SkipSuccessfulFiles && !c.TrackWorkflowFailures {
		return &ConfigError{Message: "skip_successful_files requires track_workflow_failures"}
	}
	if c.WaitForActiveWorkflows && !c.TrackWorkflowFailures {
		return &ConfigError{Message: "wait_for_active_workflows requires track_workflow_failures"}
	}
	if c.WorkflowMaxWaitSeconds < 0 {
		return &ConfigError{Message: "workflow_max_wait_seconds must be non-negative"}
	}
	return nil
}

// String renders a short debug representation, matching the
// original_source test suite's expectation that repr(config) names
// the type.
func (c *Config) String() string {
	return fmt.Sprintf("Config(base=%s, head=%s, track_workflow_failures=%t)", c.Base, c.Head, c.TrackWorkflowFailures)
}
