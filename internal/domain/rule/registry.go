package rule

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// Set is an immutable, compiled snapshot of a rule document. All reads
// return skills in declaration order; ordering matters only for
// presentation since every skill is evaluated independently.
type Set struct {
	skills []*Skill
	byName map[string]*Skill
}

// Load reads and compiles a rule document from disk.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Source: path, Err: err}
	}
	set, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Source = path
		}
		return nil, err
	}
	return set, nil
}

// Parse decodes, validates, and compiles a rule document. A single
// malformed rule fails the whole parse: partial rule sets are never
// accepted, because a dropped guardrail would be a silent safety
// regression.
func Parse(data []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(doc.Skills) == 0 {
		return nil, &ParseError{Err: errors.New("no skills defined")}
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	env, err := newConditionEnv()
	if err != nil {
		return nil, fmt.Errorf("create condition environment: %w", err)
	}

	set := &Set{
		skills: doc.Skills,
		byName: make(map[string]*Skill, len(doc.Skills)),
	}
	for _, s := range doc.Skills {
		if err := validateSkill(v, s); err != nil {
			return nil, err
		}
		applyDefaults(s)
		if err := checkInvariants(s); err != nil {
			return nil, err
		}
		if err := compileSkill(env, s); err != nil {
			return nil, err
		}
		if _, dup := set.byName[s.Name]; dup {
			return nil, &SchemaError{Rule: s.Name, Field: "name", Reason: "duplicate skill name"}
		}
		set.byName[s.Name] = s
	}
	return set, nil
}

// All returns the skills in declaration order. The returned slice must not
// be mutated.
func (s *Set) All() []*Skill { return s.skills }

// Get returns the named skill, or nil when unknown.
func (s *Set) Get(name string) *Skill { return s.byName[name] }

// Len returns the number of skills in the set.
func (s *Set) Len() int { return len(s.skills) }

// Marshal serializes the set back to its declarative YAML form. Compiled
// artifacts are omitted, so reloading the output yields an equivalent set.
func (s *Set) Marshal() ([]byte, error) {
	return yaml.Marshal(document{Skills: s.skills})
}

// validateSkill runs tag validation on one skill and converts failures to
// SchemaErrors naming the rule and field.
func validateSkill(v *validator.Validate, s *Skill) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return &SchemaError{Rule: s.Name, Field: fieldName(e), Reason: tagReason(e)}
	}
	return err
}

// applyDefaults fills Kind and Enforcement from each other when only one is
// declared. The two vocabularies describe the same policy, so a guardrail
// defaults to blocking and an advisory skill to suggesting.
func applyDefaults(s *Skill) {
	if s.Enforcement == "" {
		if s.Kind == KindGuardrail {
			s.Enforcement = EnforceBlock
		} else {
			s.Enforcement = EnforceSuggest
		}
	}
	if s.Kind == "" {
		if s.Enforcement == EnforceBlock {
			s.Kind = KindGuardrail
		} else {
			s.Kind = KindAdvisory
		}
	}
}

// checkInvariants enforces the cross-field rules that tags cannot express.
func checkInvariants(s *Skill) error {
	if s.Enforcement == EnforceBlock {
		if s.BlockMessage == "" {
			return &SchemaError{Rule: s.Name, Field: "block_message", Reason: "required when enforcement is block"}
		}
		// Blocking applies only to file-affecting operations.
		if s.FileTriggers == nil {
			return &SchemaError{Rule: s.Name, Field: "file_triggers", Reason: "required when enforcement is block"}
		}
	}
	if s.FileTriggers != nil && len(s.FileTriggers.PathPatterns) == 0 {
		return &SchemaError{Rule: s.Name, Field: "file_triggers.path_patterns", Reason: "at least one path pattern is required"}
	}
	if s.PromptTriggers != nil &&
		len(s.PromptTriggers.Keywords) == 0 && len(s.PromptTriggers.IntentPatterns) == 0 {
		return &SchemaError{Rule: s.Name, Field: "prompt_triggers", Reason: "requires keywords or intent_patterns"}
	}
	return nil
}

// compileSkill compiles every pattern in the skill. Patterns compile once
// here so matching never fails at evaluation time.
func compileSkill(env *cel.Env, s *Skill) error {
	if pt := s.PromptTriggers; pt != nil {
		pt.Intents = make([]*regexp.Regexp, 0, len(pt.IntentPatterns))
		for _, p := range pt.IntentPatterns {
			re, err := compilePattern(p)
			if err != nil {
				return &SchemaError{Rule: s.Name, Field: "prompt_triggers.intent_patterns", Reason: err.Error()}
			}
			pt.Intents = append(pt.Intents, re)
		}
	}
	if ft := s.FileTriggers; ft != nil {
		for _, g := range ft.PathPatterns {
			if !doublestar.ValidatePattern(g) {
				return &SchemaError{Rule: s.Name, Field: "file_triggers.path_patterns", Reason: fmt.Sprintf("invalid glob %q", g)}
			}
		}
		for _, g := range ft.PathExclusions {
			if !doublestar.ValidatePattern(g) {
				return &SchemaError{Rule: s.Name, Field: "file_triggers.path_exclusions", Reason: fmt.Sprintf("invalid glob %q", g)}
			}
		}
		ft.Contents = make([]*regexp.Regexp, 0, len(ft.ContentPatterns))
		for _, p := range ft.ContentPatterns {
			re, err := compilePattern(p)
			if err != nil {
				return &SchemaError{Rule: s.Name, Field: "file_triggers.content_patterns", Reason: err.Error()}
			}
			ft.Contents = append(ft.Contents, re)
		}
	}
	if s.Condition != "" {
		prg, err := compileCondition(env, s.Condition)
		if err != nil {
			return &SchemaError{Rule: s.Name, Field: "condition", Reason: err.Error()}
		}
		s.Program = prg
	}
	return nil
}

// compilePattern compiles a trigger regex. Patterns apply case-insensitively
// unless the author opens with an inline flag group and takes over flag
// control explicitly.
func compilePattern(p string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(p, "(?") {
		p = "(?i)" + p
	}
	return regexp.Compile(p)
}

// fieldName renders a validator field reference as the YAML field path.
func fieldName(e validator.FieldError) string {
	// Namespace looks like "Skill.PromptTriggers.Keywords"; drop the type.
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

// tagReason converts a validator tag failure to an actionable message.
func tagReason(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed validation: %s", e.Tag())
	}
}
