// Package match holds the pure trigger matchers. Every function here is a
// deterministic function of (skill, event): patterns are compiled at
// registry load, so matching can never fail at evaluation time.
package match

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/skillgate/skillgate/internal/domain/event"
	"github.com/skillgate/skillgate/internal/domain/rule"
)

// Prompt reports whether the skill's prompt triggers match the prompt text.
// Keywords and intent patterns are independent alternatives; a skill with no
// prompt triggers never matches a prompt.
func Prompt(s *rule.Skill, text string) bool {
	pt := s.PromptTriggers
	if pt == nil {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range pt.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	for _, re := range pt.Intents {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Path reports whether the file path matches the skill's path patterns and
// none of its exclusions. Matching is case-sensitive and anchored to the
// full path; ** spans path segments, * stays within one.
func Path(s *rule.Skill, path string) bool {
	ft := s.FileTriggers
	if ft == nil {
		return false
	}
	p := filepath.ToSlash(path)
	matched := false
	for _, g := range ft.PathPatterns {
		if ok, _ := doublestar.Match(g, p); ok {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, g := range ft.PathExclusions {
		if ok, _ := doublestar.Match(g, p); ok {
			return false
		}
	}
	return true
}

// Content reports whether the skill's content patterns are satisfied by the
// file snapshot. A skill with no content patterns is satisfied by any
// snapshot, including a missing one. A missing snapshot can never satisfy a
// non-empty pattern list; that is a non-match, not an error.
func Content(s *rule.Skill, snapshot *string) bool {
	ft := s.FileTriggers
	if ft == nil || len(ft.Contents) == 0 {
		return true
	}
	if snapshot == nil {
		return false
	}
	for _, re := range ft.Contents {
		if re.MatchString(*snapshot) {
			return true
		}
	}
	return false
}

// FileOp reports whether the skill's file triggers match the operation:
// the path must match, and any content patterns must be satisfied.
func FileOp(s *rule.Skill, ev event.FileOp) bool {
	return Path(s, ev.FilePath) && Content(s, ev.Content)
}

// Event dispatches to the matcher for the event's kind.
func Event(s *rule.Skill, ev event.Event) bool {
	switch e := ev.(type) {
	case event.Prompt:
		return Prompt(s, e.Text)
	case event.FileOp:
		return FileOp(s, e)
	default:
		return false
	}
}
