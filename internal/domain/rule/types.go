// Package rule contains the declarative skill rule model and the registry
// that loads, validates, and compiles a rule set.
package rule

import (
	"regexp"

	"github.com/google/cel-go/cel"
)

// Kind classifies a skill by what it is allowed to do to an operation.
type Kind string

const (
	// KindAdvisory marks a skill that only surfaces suggestions.
	KindAdvisory Kind = "advisory"
	// KindGuardrail marks a skill that may block an operation.
	KindGuardrail Kind = "guardrail"
)

// Enforcement is the action taken when a skill's triggers match.
type Enforcement string

const (
	// EnforceSuggest surfaces the skill as a recommendation.
	EnforceSuggest Enforcement = "suggest"
	// EnforceWarn surfaces the skill as a recommendation with warning intent.
	// It renders identically to suggest; the distinction is presentational.
	EnforceWarn Enforcement = "warn"
	// EnforceBlock stops a file operation until a skip condition is satisfied.
	EnforceBlock Enforcement = "block"
)

// PromptTriggers describes when a skill matches a user prompt.
// Keywords and intent patterns are independent alternatives: any keyword
// substring hit or any pattern match activates the skill.
type PromptTriggers struct {
	// Keywords are matched as case-insensitive substrings of the prompt.
	Keywords []string `yaml:"keywords,omitempty"`
	// IntentPatterns are regular expressions tested against the prompt.
	IntentPatterns []string `yaml:"intent_patterns,omitempty"`

	// Intents holds the compiled form of IntentPatterns, populated at load.
	Intents []*regexp.Regexp `yaml:"-"`
}

// FileTriggers describes when a skill matches an Edit/Write operation.
type FileTriggers struct {
	// PathPatterns are doublestar globs the file path must match.
	// At least one pattern is required when file triggers are present.
	PathPatterns []string `yaml:"path_patterns"`
	// PathExclusions are globs that veto a path match.
	PathExclusions []string `yaml:"path_exclusions,omitempty"`
	// ContentPatterns are regular expressions tested against the file's
	// current contents. When non-empty, at least one must match in
	// addition to the path patterns.
	ContentPatterns []string `yaml:"content_patterns,omitempty"`

	// Contents holds the compiled form of ContentPatterns, populated at load.
	Contents []*regexp.Regexp `yaml:"-"`
}

// SkipConditions are configured exceptions that convert a would-be block
// into an allow.
type SkipConditions struct {
	// SessionSkillUsed allows the operation once the skill has already
	// blocked (and was presumably remediated) earlier in the same session.
	SessionSkillUsed bool `yaml:"session_skill_used,omitempty"`
	// FileMarkers allow the operation when the file's contents contain
	// any of these literal markers.
	FileMarkers []string `yaml:"file_markers,omitempty"`
	// EnvOverride names an environment variable whose mere presence
	// disables block enforcement for the invocation.
	EnvOverride string `yaml:"env_override,omitempty"`
}

// Skill is one named capability's activation policy. Skills are immutable
// once loaded for the lifetime of a process invocation.
type Skill struct {
	// Name is the unique, stable identifier for this skill.
	Name string `yaml:"name" validate:"required"`
	// Kind classifies the skill. Defaults from Enforcement when omitted.
	Kind Kind `yaml:"kind,omitempty" validate:"omitempty,oneof=advisory guardrail"`
	// Enforcement is the action on match. Defaults from Kind when omitted.
	Enforcement Enforcement `yaml:"enforcement,omitempty" validate:"omitempty,oneof=suggest warn block"`
	// Priority groups suggestions for presentation. It never resolves
	// conflicts between rules.
	Priority int `yaml:"priority,omitempty"`
	// Description is the one-line summary rendered in suggestion output.
	Description string `yaml:"description,omitempty"`

	PromptTriggers *PromptTriggers `yaml:"prompt_triggers,omitempty"`
	FileTriggers   *FileTriggers   `yaml:"file_triggers,omitempty"`

	// Condition is an optional CEL expression over the event
	// (event_kind, tool, file_path, prompt). A skill with a condition
	// matches only when its triggers match and the condition is true.
	Condition string `yaml:"condition,omitempty"`

	// BlockMessage is the message rendered when this skill blocks.
	// The {file_path} placeholder is substituted with the event's path.
	// Required when Enforcement is block.
	BlockMessage string `yaml:"block_message,omitempty"`

	Skip SkipConditions `yaml:"skip,omitempty"`

	// Program is the compiled form of Condition, populated at load.
	Program cel.Program `yaml:"-"`
}

// IsBlocking reports whether this skill enforces at block level.
func (s *Skill) IsBlocking() bool {
	return s.Enforcement == EnforceBlock
}

// document is the top-level shape of a skills.yaml rule set.
type document struct {
	Skills []*Skill `yaml:"skills"`
}
