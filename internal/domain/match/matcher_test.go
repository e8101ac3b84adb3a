package match

import (
	"regexp"
	"testing"

	"github.com/skillgate/skillgate/internal/domain/event"
	"github.com/skillgate/skillgate/internal/domain/rule"
)

func promptSkill(keywords []string, intents ...string) *rule.Skill {
	pt := &rule.PromptTriggers{Keywords: keywords, IntentPatterns: intents}
	for _, p := range intents {
		pt.Intents = append(pt.Intents, regexp.MustCompile("(?i)"+p))
	}
	return &rule.Skill{Name: "p", PromptTriggers: pt}
}

func fileSkill(patterns, exclusions, contents []string) *rule.Skill {
	ft := &rule.FileTriggers{
		PathPatterns:    patterns,
		PathExclusions:  exclusions,
		ContentPatterns: contents,
	}
	for _, p := range contents {
		ft.Contents = append(ft.Contents, regexp.MustCompile("(?i)"+p))
	}
	return &rule.Skill{Name: "f", FileTriggers: ft}
}

func strPtr(s string) *string { return &s }

// ---------------------------------------------------------------------------
// Prompt matching
// ---------------------------------------------------------------------------

func TestPrompt_KeywordCaseInsensitive(t *testing.T) {
	s := promptSkill([]string{"Prisma"})
	if !Prompt(s, "update the PRISMA schema") {
		t.Error("expected case-insensitive keyword match")
	}
	if !Prompt(s, "prisma migration please") {
		t.Error("expected lower-case keyword match")
	}
	if Prompt(s, "update the schema") {
		t.Error("expected no match without the keyword")
	}
}

func TestPrompt_KeywordIsSubstring(t *testing.T) {
	s := promptSkill([]string{"migrate"})
	if !Prompt(s, "let's migrated the database") {
		t.Error("keywords match as substrings, not whole words")
	}
}

func TestPrompt_IntentPattern(t *testing.T) {
	s := promptSkill(nil, "migrat(e|ion)")
	if !Prompt(s, "run the Migration now") {
		t.Error("expected intent regex to match")
	}
	if Prompt(s, "nothing relevant") {
		t.Error("expected no match")
	}
}

func TestPrompt_KeywordsAndIntentsAreAlternatives(t *testing.T) {
	s := promptSkill([]string{"prisma"}, "schema change")
	if !Prompt(s, "prisma only") {
		t.Error("keyword alone should match")
	}
	if !Prompt(s, "a schema change only") {
		t.Error("intent alone should match")
	}
}

func TestPrompt_NoTriggers_NeverMatches(t *testing.T) {
	s := &rule.Skill{Name: "bare"}
	if Prompt(s, "anything at all") {
		t.Error("skill without prompt triggers must not match prompts")
	}
}

func TestPrompt_EmptyText(t *testing.T) {
	s := promptSkill([]string{"x"})
	if Prompt(s, "") {
		t.Error("empty prompt should not match")
	}
}

// ---------------------------------------------------------------------------
// Path matching
// ---------------------------------------------------------------------------

func TestPath_DoublestarSpansSegments(t *testing.T) {
	s := fileSkill([]string{"**/*.sql"}, nil, nil)
	cases := map[string]bool{
		"migrations/001.sql":     true,
		"db/nested/deep/up.sql":  true,
		"schema.sql":             true, // ** matches zero segments
		"migrations/001.sql.bak": false,
		"migrations/notes.txt":   false,
	}
	for path, want := range cases {
		if got := Path(s, path); got != want {
			t.Errorf("Path(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestPath_SingleStarStaysInSegment(t *testing.T) {
	s := fileSkill([]string{"src/*.go"}, nil, nil)
	if !Path(s, "src/main.go") {
		t.Error("expected single-segment match")
	}
	if Path(s, "src/pkg/main.go") {
		t.Error("single * must not cross a path separator")
	}
}

func TestPath_ExclusionsWin(t *testing.T) {
	s := fileSkill([]string{"**/*.sql"}, []string{"**/testdata/**"}, nil)
	if Path(s, "pkg/testdata/fixture.sql") {
		t.Error("excluded path must not match")
	}
	if !Path(s, "migrations/001.sql") {
		t.Error("non-excluded path should still match")
	}
}

func TestPath_BackslashesNormalized(t *testing.T) {
	s := fileSkill([]string{"**/*.sql"}, nil, nil)
	if !Path(s, `migrations\001.sql`) {
		t.Error("expected windows-style path to match after normalization")
	}
}

func TestPath_NoFileTriggers_NeverMatches(t *testing.T) {
	s := &rule.Skill{Name: "bare"}
	if Path(s, "anything.sql") {
		t.Error("skill without file triggers must not match paths")
	}
}

// ---------------------------------------------------------------------------
// Content matching
// ---------------------------------------------------------------------------

func TestContent_NoPatterns_AlwaysSatisfied(t *testing.T) {
	s := fileSkill([]string{"**/*.sql"}, nil, nil)
	if !Content(s, nil) {
		t.Error("no content patterns should be satisfied by a missing snapshot")
	}
	if !Content(s, strPtr("whatever")) {
		t.Error("no content patterns should be satisfied by any snapshot")
	}
}

func TestContent_MissingSnapshot_NeverSatisfiesPatterns(t *testing.T) {
	s := fileSkill([]string{"**/*.sql"}, nil, []string{"CREATE TABLE"})
	if Content(s, nil) {
		t.Error("a missing snapshot must not satisfy content patterns")
	}
}

func TestContent_PatternMatch(t *testing.T) {
	s := fileSkill([]string{"**/*.sql"}, nil, []string{"CREATE TABLE"})
	if !Content(s, strPtr("create table users (id int);")) {
		t.Error("expected case-insensitive content match")
	}
	if Content(s, strPtr("SELECT 1;")) {
		t.Error("expected no match")
	}
}

// ---------------------------------------------------------------------------
// Event dispatch
// ---------------------------------------------------------------------------

func TestFileOp_PathAndContentBothRequired(t *testing.T) {
	s := fileSkill([]string{"**/*.sql"}, nil, []string{"CREATE TABLE"})
	ev := event.FileOp{FilePath: "m/001.sql", Content: strPtr("CREATE TABLE t (id int);")}
	if !FileOp(s, ev) {
		t.Error("expected match when both path and content match")
	}
	ev.Content = strPtr("SELECT 1;")
	if FileOp(s, ev) {
		t.Error("content mismatch must reject the operation")
	}
	ev = event.FileOp{FilePath: "m/notes.txt", Content: strPtr("CREATE TABLE t (id int);")}
	if FileOp(s, ev) {
		t.Error("path mismatch must reject the operation")
	}
}

func TestEvent_Dispatch(t *testing.T) {
	ps := promptSkill([]string{"prisma"})
	fs := fileSkill([]string{"**/*.sql"}, nil, nil)

	if !Event(ps, event.Prompt{Text: "prisma schema"}) {
		t.Error("prompt skill should match prompt event")
	}
	if Event(ps, event.FileOp{FilePath: "a.sql"}) {
		t.Error("prompt-only skill must not match file events")
	}
	if !Event(fs, event.FileOp{FilePath: "a.sql"}) {
		t.Error("file skill should match file event")
	}
	if Event(fs, event.Prompt{Text: "touch a.sql"}) {
		t.Error("file-only skill must not match prompt events")
	}
}
