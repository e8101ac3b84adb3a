package hook

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/skillgate/skillgate/internal/domain/event"
)

// InputError reports a malformed hook payload. The adapter never guesses a
// default event from bad input.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid hook input: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid hook input: %s", e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

// promptInput matches the JSON the caller sends the prompt hook on stdin.
type promptInput struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// fileInput matches the JSON the caller sends the file hook on stdin.
type fileInput struct {
	SessionID string `json:"session_id"`
	ToolName  string `json:"tool_name"`
	ToolInput struct {
		FilePath string `json:"file_path"`
	} `json:"tool_input"`
}

func decodePromptInput(r io.Reader) (promptInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return promptInput{}, &InputError{Reason: "read stdin", Err: err}
	}
	var in promptInput
	if err := json.Unmarshal(data, &in); err != nil {
		return promptInput{}, &InputError{Reason: "parse payload", Err: err}
	}
	if in.SessionID == "" {
		return promptInput{}, &InputError{Reason: "missing session_id"}
	}
	if in.Prompt == "" {
		return promptInput{}, &InputError{Reason: "missing prompt"}
	}
	return in, nil
}

// decodeFileInput parses a file hook payload. gated=false means the payload
// is valid JSON but not an Edit/Write tool event (other hook event kinds
// arrive on the same channel); those pass through without evaluation.
func decodeFileInput(r io.Reader) (in fileInput, gated bool, err error) {
	data, rerr := io.ReadAll(r)
	if rerr != nil {
		return fileInput{}, false, &InputError{Reason: "read stdin", Err: rerr}
	}

	var raw map[string]json.RawMessage
	if jerr := json.Unmarshal(data, &raw); jerr != nil {
		return fileInput{}, false, &InputError{Reason: "parse payload", Err: jerr}
	}
	if _, hasTool := raw["tool_name"]; !hasTool {
		return fileInput{}, false, nil
	}

	if jerr := json.Unmarshal(data, &in); jerr != nil {
		return fileInput{}, false, &InputError{Reason: "parse payload", Err: jerr}
	}
	if !event.KnownTool(in.ToolName) {
		return fileInput{}, false, nil
	}
	if in.SessionID == "" {
		return fileInput{}, false, &InputError{Reason: "missing session_id"}
	}
	if in.ToolInput.FilePath == "" {
		return fileInput{}, false, &InputError{Reason: "missing tool_input.file_path"}
	}
	return in, true, nil
}
