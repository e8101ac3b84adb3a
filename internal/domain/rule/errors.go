package rule

import "fmt"

// ParseError reports a rule document that could not be read or decoded.
// Any parse error invalidates the whole load: a partially-read rule set
// could silently drop a guardrail.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("parse rule set %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("parse rule set: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a structural invariant violation in a single rule.
// It names the offending rule and field so the author can fix the document.
// Like ParseError, it fails the whole load.
type SchemaError struct {
	Rule   string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	rule := e.Rule
	if rule == "" {
		rule = "(unnamed)"
	}
	return fmt.Sprintf("rule %q: field %q: %s", rule, e.Field, e.Reason)
}
