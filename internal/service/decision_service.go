// Package service contains the decision engine that combines trigger
// matches, enforcement policy, and session state into per-rule decisions.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/skillgate/skillgate/internal/domain/event"
	"github.com/skillgate/skillgate/internal/domain/match"
	"github.com/skillgate/skillgate/internal/domain/rule"
	"github.com/skillgate/skillgate/internal/domain/session"
)

// Outcome is the engine's verdict for one rule against one event.
type Outcome string

const (
	// OutcomeAllow means the rule does not stand in the operation's way.
	OutcomeAllow Outcome = "allow"
	// OutcomeSuggest means the rule wants the skill surfaced to the user.
	OutcomeSuggest Outcome = "suggest"
	// OutcomeBlock means the operation must not proceed.
	OutcomeBlock Outcome = "block"
)

// Decision is the outcome of evaluating one rule against one event.
type Decision struct {
	Skill   *rule.Skill
	Matched bool
	Outcome Outcome
	// Message is the rendered block message; set only for block outcomes.
	Message string
}

// DecisionService evaluates every rule in the set against one event.
// Evaluation is a pure function of (rules, event, session state, env);
// its only side effect is marking a blocking rule used.
type DecisionService struct {
	rules     *rule.Set
	sessions  session.Store
	cache     *resultCache
	lookupEnv func(string) (string, bool)
	logger    *slog.Logger
}

// Option configures a DecisionService.
type Option func(*DecisionService)

// WithEnvLookup overrides environment lookup, for tests.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(s *DecisionService) { s.lookupEnv = fn }
}

// WithCacheSize sets the maximum number of memoized match results.
func WithCacheSize(size int) Option {
	return func(s *DecisionService) { s.cache = newResultCache(size) }
}

// NewDecisionService creates a decision engine over an immutable rule set.
func NewDecisionService(rules *rule.Set, sessions session.Store, logger *slog.Logger, opts ...Option) *DecisionService {
	s := &DecisionService{
		rules:     rules,
		sessions:  sessions,
		cache:     newResultCache(256),
		lookupEnv: os.LookupEnv,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate produces one decision per rule, in declaration order. Every rule
// is evaluated independently; a single event can match several rules, and
// all of them surface. An error here means a rule condition failed at
// runtime, which indicates a registry validation gap and aborts the
// invocation rather than guessing a verdict.
func (s *DecisionService) Evaluate(ctx context.Context, ev event.Event) ([]Decision, error) {
	decisions := make([]Decision, 0, s.rules.Len())
	for _, skill := range s.rules.All() {
		d, err := s.evaluateRule(ctx, skill, ev)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

func (s *DecisionService) evaluateRule(_ context.Context, skill *rule.Skill, ev event.Event) (Decision, error) {
	matched, err := s.matched(skill, ev)
	if err != nil {
		return Decision{}, err
	}
	if !matched {
		return Decision{Skill: skill, Outcome: OutcomeAllow}, nil
	}

	d := Decision{Skill: skill, Matched: true}

	fileOp, isFileOp := ev.(event.FileOp)
	if !skill.IsBlocking() || !isFileOp {
		// Suggestions are cheap and non-blocking, so they are not
		// deduplicated by session. A blocking rule matched via its
		// prompt triggers also surfaces as a suggestion: blocking is
		// reserved for file-affecting operations.
		d.Outcome = OutcomeSuggest
		return d, nil
	}

	if s.skipHolds(skill, fileOp) {
		d.Outcome = OutcomeAllow
		return d, nil
	}

	d.Outcome = OutcomeBlock
	d.Message = strings.ReplaceAll(skill.BlockMessage, "{file_path}", fileOp.FilePath)

	// Mark the guardrail used so a corrective retry in the same session is
	// not blocked again. State failures degrade to a repeatable block.
	if err := s.sessions.MarkUsed(fileOp.SessionID, skill.Name); err != nil {
		s.logger.Warn("mark skill used failed",
			"session_id", fileOp.SessionID, "skill", skill.Name, "error", err)
	}
	return d, nil
}

// matched reports whether the rule's triggers (and optional condition)
// match the event. Results are memoized per invocation.
func (s *DecisionService) matched(skill *rule.Skill, ev event.Event) (bool, error) {
	key := matchKey(skill, ev)
	if v, ok := s.cache.get(key); ok {
		return v, nil
	}

	m := match.Event(skill, ev)
	if m && skill.Program != nil {
		ok, err := rule.EvalCondition(skill.Program, conditionVars(ev))
		if err != nil {
			return false, fmt.Errorf("rule %q: %w", skill.Name, err)
		}
		m = ok
	}

	s.cache.put(key, m)
	return m, nil
}

// skipHolds reports whether any configured skip condition converts a
// would-be block into an allow.
func (s *DecisionService) skipHolds(skill *rule.Skill, ev event.FileOp) bool {
	if skill.Skip.EnvOverride != "" {
		if _, set := s.lookupEnv(skill.Skip.EnvOverride); set {
			s.logger.Debug("block skipped by env override",
				"skill", skill.Name, "env", skill.Skip.EnvOverride)
			return true
		}
	}
	if ev.Content != nil {
		for _, marker := range skill.Skip.FileMarkers {
			if strings.Contains(*ev.Content, marker) {
				s.logger.Debug("block skipped by file marker",
					"skill", skill.Name, "marker", marker)
				return true
			}
		}
	}
	if skill.Skip.SessionSkillUsed && s.sessions.HasUsed(ev.SessionID, skill.Name) {
		s.logger.Debug("block skipped, skill already used this session",
			"skill", skill.Name, "session_id", ev.SessionID)
		return true
	}
	return false
}

// conditionVars projects an event onto the CEL condition variables.
func conditionVars(ev event.Event) rule.ConditionVars {
	switch e := ev.(type) {
	case event.Prompt:
		return rule.ConditionVars{EventKind: string(event.KindPrompt), Prompt: e.Text}
	case event.FileOp:
		return rule.ConditionVars{
			EventKind: string(event.KindFile),
			Tool:      string(e.Tool),
			FilePath:  e.FilePath,
		}
	default:
		return rule.ConditionVars{}
	}
}

// matchKey hashes the (rule, event) pair for memoization.
func matchKey(skill *rule.Skill, ev event.Event) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(skill.Name)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(string(ev.Kind()))
	_, _ = h.Write([]byte{0})
	switch e := ev.(type) {
	case event.Prompt:
		_, _ = h.WriteString(e.Text)
	case event.FileOp:
		_, _ = h.WriteString(string(e.Tool))
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(e.FilePath)
		if e.Content != nil {
			_, _ = h.Write([]byte{0})
			_, _ = h.WriteString(*e.Content)
		}
	}
	return h.Sum64()
}

// Blocks filters the block decisions, preserving declaration order.
func Blocks(decisions []Decision) []Decision {
	var out []Decision
	for _, d := range decisions {
		if d.Outcome == OutcomeBlock {
			out = append(out, d)
		}
	}
	return out
}

// Suggestions filters the suggest decisions and orders them for
// presentation: grouped by priority (highest first), declaration order as
// the tie-break.
func Suggestions(decisions []Decision) []Decision {
	var out []Decision
	for _, d := range decisions {
		if d.Outcome == OutcomeSuggest {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Skill.Priority > out[j].Skill.Priority
	})
	return out
}
