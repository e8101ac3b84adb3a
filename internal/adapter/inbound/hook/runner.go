// Package hook adapts the external hook protocol to the decision engine:
// one JSON event on stdin in, rendered text and an exit status out.
package hook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/skillgate/skillgate/internal/adapter/outbound/audit"
	"github.com/skillgate/skillgate/internal/domain/event"
	"github.com/skillgate/skillgate/internal/domain/match"
	"github.com/skillgate/skillgate/internal/domain/rule"
	"github.com/skillgate/skillgate/internal/service"
)

// Exit codes form the adapter's contract with the calling process. Only
// ExitBlocked carries policy meaning; ExitInternal must never be read as
// either allow or block.
const (
	ExitAllow    = 0
	ExitInternal = 1
	ExitBlocked  = 2
)

// SuggestionMarker is the fixed heading that opens suggestion output.
// Its absence means no rule matched.
const SuggestionMarker = "RECOMMENDED SKILLS"

// Runner executes one hook invocation end to end. Streams and file access
// are injected so tests can drive it without a real process boundary.
type Runner struct {
	Rules   *rule.Set
	Service *service.DecisionService
	Audit   *audit.Writer
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger

	// ReadFile loads a file snapshot for content matching. Defaults to
	// os.ReadFile.
	ReadFile func(string) ([]byte, error)
}

func (r *Runner) readFile(path string) ([]byte, error) {
	if r.ReadFile != nil {
		return r.ReadFile(path)
	}
	return os.ReadFile(path)
}

// RunPrompt handles the advisory path. It renders matched suggestions to
// stdout and always reports allow; only a malformed payload yields a
// non-neutral status.
func (r *Runner) RunPrompt(ctx context.Context) int {
	in, err := decodePromptInput(r.Stdin)
	if err != nil {
		fmt.Fprintf(r.Stderr, "skillgate: %v\n", err)
		return ExitInternal
	}

	ev := event.Prompt{SessionID: in.SessionID, Text: in.Prompt}
	decisions, err := r.Service.Evaluate(ctx, ev)
	if err != nil {
		fmt.Fprintf(r.Stderr, "skillgate: %v\n", err)
		return ExitInternal
	}

	suggested := service.Suggestions(decisions)
	if len(suggested) > 0 {
		fmt.Fprintln(r.Stdout, SuggestionMarker)
		for _, d := range suggested {
			if d.Skill.Description != "" {
				fmt.Fprintf(r.Stdout, "- %s: %s\n", d.Skill.Name, d.Skill.Description)
			} else {
				fmt.Fprintf(r.Stdout, "- %s\n", d.Skill.Name)
			}
		}
	}

	r.Audit.Write(audit.Record{
		SessionID: in.SessionID,
		EventKind: string(event.KindPrompt),
		Outcome:   string(service.OutcomeAllow),
		Suggested: skillNames(suggested),
	})
	return ExitAllow
}

// RunFile handles the enforcement path. Blocked operations render every
// matched block message on stderr and exit with the blocked status; the
// caller treats that status as "the operation did not occur".
func (r *Runner) RunFile(ctx context.Context) int {
	in, gated, err := decodeFileInput(r.Stdin)
	if err != nil {
		fmt.Fprintf(r.Stderr, "skillgate: %v\n", err)
		return ExitInternal
	}
	if !gated {
		// Not an Edit/Write payload (e.g. a session lifecycle event or an
		// ungated tool): pass through silently.
		return ExitAllow
	}

	ev := event.FileOp{
		SessionID: in.SessionID,
		Tool:      event.Tool(in.ToolName),
		FilePath:  in.ToolInput.FilePath,
	}
	if r.needsContent(ev.FilePath) {
		if data, err := r.readFile(ev.FilePath); err == nil {
			content := string(data)
			ev.Content = &content
		} else if !os.IsNotExist(err) {
			r.Logger.Warn("file snapshot unreadable, matching on path only",
				"file_path", ev.FilePath, "error", err)
		}
	}

	decisions, err := r.Service.Evaluate(ctx, ev)
	if err != nil {
		fmt.Fprintf(r.Stderr, "skillgate: %v\n", err)
		return ExitInternal
	}

	blocked := service.Blocks(decisions)
	rec := audit.Record{
		SessionID: in.SessionID,
		EventKind: string(event.KindFile),
		Tool:      in.ToolName,
		FilePath:  ev.FilePath,
		Outcome:   string(service.OutcomeAllow),
		Blocked:   skillNames(blocked),
	}

	if len(blocked) > 0 {
		// Every violated guardrail surfaces; suppressing any would be a
		// silent safety gap.
		for _, d := range blocked {
			fmt.Fprintln(r.Stderr, d.Message)
		}
		rec.Outcome = string(service.OutcomeBlock)
		r.Audit.Write(rec)
		return ExitBlocked
	}

	r.Audit.Write(rec)
	return ExitAllow
}

// needsContent reports whether any rule that could match this path wants a
// content snapshot, either for content patterns or for skip markers.
// Reading the file is the slowest part of the invocation, so it only
// happens when some rule can use the result.
func (r *Runner) needsContent(path string) bool {
	for _, s := range r.Rules.All() {
		if s.FileTriggers == nil {
			continue
		}
		if len(s.FileTriggers.ContentPatterns) == 0 && len(s.Skip.FileMarkers) == 0 {
			continue
		}
		// Path matching is cheap; only rules whose path patterns could
		// match can use the snapshot.
		if match.Path(s, path) {
			return true
		}
	}
	return false
}

func skillNames(decisions []service.Decision) []string {
	if len(decisions) == 0 {
		return nil
	}
	names := make([]string, 0, len(decisions))
	for _, d := range decisions {
		names = append(names, d.Skill.Name)
	}
	return names
}
