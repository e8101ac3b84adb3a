// Package session defines the session-scoped memory of satisfied guardrails
// and the store port its adapters implement.
package session

import "time"

// State is one session's record. It is owned exclusively by the store;
// UsedSkills only ever grows.
type State struct {
	// UsedSkills names the guardrail skills already satisfied this session.
	UsedSkills []string  `json:"used_skills"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Has reports whether the named skill is recorded as used.
func (s *State) Has(skill string) bool {
	for _, u := range s.UsedSkills {
		if u == skill {
			return true
		}
	}
	return false
}

// Store is durable, session-keyed storage that survives across process
// invocations. Records for different session ids are independent; MarkUsed
// must be atomic with respect to concurrent invocations for the same id.
type Store interface {
	// Get returns the session's state, or an empty state when none exists
	// or the record is unreadable. Read failures degrade to empty state:
	// losing memoization costs at worst a repeated block, never a missed
	// guardrail.
	Get(sessionID string) State

	// MarkUsed records that the skill's guardrail fired for this session.
	// Idempotent: marking an already-used skill has no further effect.
	MarkUsed(sessionID, skill string) error

	// HasUsed reports whether the skill is marked used for the session.
	HasUsed(sessionID, skill string) bool
}
