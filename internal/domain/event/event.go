// Package event defines the canonical event model the hook adapters build
// from their external payloads. Events are constructed once per invocation
// and never mutated.
package event

// Kind distinguishes the two event shapes.
type Kind string

const (
	// KindPrompt is a user prompt submitted to the assistant.
	KindPrompt Kind = "prompt"
	// KindFile is a request to edit or write a file.
	KindFile Kind = "file"
)

// Tool is the file-affecting operation being attempted.
type Tool string

const (
	ToolEdit  Tool = "Edit"
	ToolWrite Tool = "Write"
)

// KnownTool reports whether the named tool is one the engine gates.
// Unknown tools pass through unexamined.
func KnownTool(name string) bool {
	return name == string(ToolEdit) || name == string(ToolWrite)
}

// Event is either a Prompt or a FileOp.
type Event interface {
	Kind() Kind
	Session() string
}

// Prompt is a user prompt event.
type Prompt struct {
	SessionID string
	Text      string
}

func (Prompt) Kind() Kind        { return KindPrompt }
func (p Prompt) Session() string { return p.SessionID }

// FileOp is an edit/write event. Content is the file's current on-disk
// snapshot; nil means no snapshot was available (new file, unreadable, or
// no rule needed content).
type FileOp struct {
	SessionID string
	Tool      Tool
	FilePath  string
	Content   *string
}

func (FileOp) Kind() Kind        { return KindFile }
func (f FileOp) Session() string { return f.SessionID }
