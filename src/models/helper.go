package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// newCallID issues a correlation id for backends that do not provide one.
func newCallID() string {
	return "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ensureCallIDs fills in missing ids so every call can be answered.
func ensureCallIDs(calls []ToolCall) []ToolCall {
	for i := range calls {
		if strings.TrimSpace(calls[i].ID) == "" {
			calls[i].ID = newCallID()
		}
		if calls[i].Arguments == nil {
			calls[i].Arguments = map[string]any{}
		}
	}
	return calls
}

// decodeArguments parses a JSON argument object. Anything that is not a JSON
// object yields an empty map so argument validation can report what is missing.
func decodeArguments(raw string) map[string]any {
	args := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// encodeArguments is the inverse of decodeArguments.
func encodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// renderRaw keeps a printable copy of a backend reply.
func renderRaw(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
