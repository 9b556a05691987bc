package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// CompletionKind tags which callback shape a payload was recognised as.
type CompletionKind int

const (
	CompletionUnrecognized CompletionKind = iota
	// {status: "active"|"draft"|"failed", error?, result?}
	CompletionExplicit
	// {analysis_complete: true, stakeholders: [...]}
	CompletionSucceeded
	// {error: "..."} or {failed: true}
	CompletionFailed
	// {projectId, analysis_complete: false}, legacy webhook only
	CompletionIncomplete
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionExplicit:
		return "explicit"
	case CompletionSucceeded:
		return "success_shorthand"
	case CompletionFailed:
		return "failure_shorthand"
	case CompletionIncomplete:
		return "incomplete_shorthand"
	default:
		return "unrecognized"
	}
}

// ValidCompletionFormats is echoed back to the engine when a payload is rejected.
var ValidCompletionFormats = []string{
	`{ "status": "active|draft|failed", "error": "...", "result": { "stakeholders": [...] } }`,
	`{ "analysis_complete": true, "stakeholders": [...] }`,
	`{ "error": "error message" }`,
	`{ "failed": true }`,
}

// Completion is the normalized form of an engine callback.
type Completion struct {
	Kind         CompletionKind
	Status       string
	ErrorMessage string
	// ProjectID is only set when the body carried one (legacy webhook route).
	ProjectID string

	Stakeholders []Stakeholder
	// StakeholderErr is set when a stakeholder list was present but unreadable.
	// It never invalidates the completion itself.
	StakeholderErr error
}

// HasStakeholders reports whether the callback supplied a usable list.
func (c Completion) HasStakeholders() bool {
	return len(c.Stakeholders) > 0
}

// NormalizeCompletion resolves a raw callback body into a Completion. Any body
// that matches none of the accepted shapes yields a *PayloadError.
func NormalizeCompletion(raw []byte) (Completion, error) {
	fields, err := decodeObject(raw)
	if err != nil {
		return Completion{}, err
	}

	var c Completion
	c.ProjectID, _ = stringField(fields, "projectId")

	switch status, _ := stringField(fields, "status"); {
	case status != "":
		c.Kind = CompletionExplicit
		c.Status = strings.ToLower(strings.TrimSpace(status))
		c.ErrorMessage, _ = stringField(fields, "error")
		if !isCompletionStatus(c.Status) {
			return Completion{}, &PayloadError{
				Reason: "invalid status, must be one of: active, draft, failed",
				Value:  status,
			}
		}
		if c.Status == StatusActive {
			list := fields["stakeholders"]
			if result, ok := fields["result"]; ok {
				if nested, err := decodeObject(result); err == nil {
					if inner, ok := nested["stakeholders"]; ok {
						list = inner
					}
				}
			}
			c.Stakeholders, c.StakeholderErr = decodeStakeholders(list)
		}

	case boolField(fields, "analysis_complete"):
		c.Kind = CompletionSucceeded
		c.Status = StatusActive
		c.Stakeholders, c.StakeholderErr = decodeStakeholders(fields["stakeholders"])

	default:
		msg, _ := stringField(fields, "error")
		if msg == "" && !boolField(fields, "failed") {
			return Completion{}, &PayloadError{
				Reason:   "invalid request format, expected a status, analysis_complete or error field",
				Received: sortedKeys(fields),
			}
		}
		c.Kind = CompletionFailed
		c.Status = StatusFailed
		c.ErrorMessage = msg
		if c.ErrorMessage == "" {
			c.ErrorMessage = ReasonWorkflowFailed
		}
	}

	return c, nil
}

// NormalizeWorkflowCompletion is NormalizeCompletion for the legacy webhook,
// which also accepts an explicit analysis_complete: false and sends the project
// back to draft.
func NormalizeWorkflowCompletion(raw []byte) (Completion, error) {
	c, err := NormalizeCompletion(raw)
	if err == nil {
		return c, nil
	}

	fields, derr := decodeObject(raw)
	if derr != nil {
		return Completion{}, err
	}
	if _, ok := fields["status"]; ok || !falseField(fields, "analysis_complete") {
		return Completion{}, err
	}

	c = Completion{Kind: CompletionIncomplete, Status: StatusDraft}
	c.ProjectID, _ = stringField(fields, "projectId")
	return c, nil
}

func isCompletionStatus(s string) bool {
	return s == StatusActive || s == StatusDraft || s == StatusFailed
}

// decodeObject accepts a JSON object, or a one-element array wrapping one
// (workflow engines commonly emit item lists).
func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil || len(items) != 1 {
			return nil, &PayloadError{Reason: "expected a single callback object"}
		}
		raw = bytes.TrimSpace(items[0])
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, &PayloadError{Reason: "body must be a JSON object"}
	}
	return fields, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	v, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// boolField is true for JSON true and for the string "true".
func boolField(fields map[string]json.RawMessage, key string) bool {
	v, ok := fields[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	s, _ := stringField(fields, key)
	return strings.EqualFold(s, "true")
}

// falseField is true for JSON false and for the string "false". A missing key
// is not false.
func falseField(fields map[string]json.RawMessage, key string) bool {
	v, ok := fields[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return !b
	}
	s, _ := stringField(fields, key)
	return strings.EqualFold(s, "false")
}

// decodeStakeholders reads an array of stakeholders, also when the engine sent
// the array JSON-encoded inside a string.
func decodeStakeholders(raw json.RawMessage) ([]Stakeholder, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decode stakeholders: %w", err)
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return nil, nil
		}
		raw = []byte(inner)
	}

	var list []Stakeholder
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode stakeholders: %w", err)
	}
	for i := range list {
		list[i].Priority = strings.ToLower(strings.TrimSpace(list[i].Priority))
		list[i].StakeholderID = strings.TrimSpace(list[i].StakeholderID)
	}
	return list, nil
}

func sortedKeys(fields map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
