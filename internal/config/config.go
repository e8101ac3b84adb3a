// Package config provides tool configuration for skillgate: where the rule
// set lives, how session state persists, and how the engine degrades when
// its state store fails.
package config

import (
	"os"
	"path/filepath"
)

// Config is the top-level skillgate configuration. The rule set itself
// lives in a separate declarative document (RulesFile); this file only
// configures the engine around it.
type Config struct {
	// RulesFile is the path to the skills rule document.
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file" validate:"required"`

	// LogLevel sets the minimum log level: "debug", "info", "warn", "error".
	// Defaults to "warn" so a clean hook run emits nothing.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// FailMode controls what happens when the session store cannot be
	// opened: "open" degrades to an in-memory store (a guardrail may block
	// once more than needed), "closed" aborts the invocation.
	// Defaults to "open".
	FailMode string `yaml:"fail_mode" mapstructure:"fail_mode" validate:"omitempty,oneof=open closed"`

	// State configures session state persistence.
	State StateConfig `yaml:"state" mapstructure:"state"`

	// Audit configures the decision audit trail.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`
}

// StateConfig selects and locates the session store backend.
type StateConfig struct {
	// Backend is "file" (one JSON record per session) or "sqlite"
	// (a single embedded database). Defaults to "file".
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=file sqlite"`

	// Dir is the record directory for the file backend.
	// Defaults to ~/.skillgate/sessions.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Path is the database file for the sqlite backend.
	// Defaults to ~/.skillgate/sessions.db.
	Path string `yaml:"path" mapstructure:"path"`
}

// AuditConfig configures the decision audit trail.
type AuditConfig struct {
	// Output is "none", "stdout", or "file://<absolute-path>".
	// Defaults to "none".
	Output string `yaml:"output" mapstructure:"output" validate:"omitempty,audit_output"`
}

// SetDefaults applies default values to unset fields.
func (c *Config) SetDefaults() {
	if c.RulesFile == "" {
		c.RulesFile = "skills.yaml"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.FailMode == "" {
		c.FailMode = "open"
	}
	if c.State.Backend == "" {
		c.State.Backend = "file"
	}
	home, _ := os.UserHomeDir()
	if c.State.Dir == "" {
		c.State.Dir = filepath.Join(home, ".skillgate", "sessions")
	}
	if c.State.Path == "" {
		c.State.Path = filepath.Join(home, ".skillgate", "sessions.db")
	}
	if c.Audit.Output == "" {
		c.Audit.Output = "none"
	}
}
