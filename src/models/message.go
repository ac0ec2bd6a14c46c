package models

import "strings"

// Role names the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a Conversation. The concrete type decides which
// fields exist: SystemMessage, UserMessage, AssistantMessage or ToolMessage.
type Message interface {
	Role() Role
	isMessage()
}

// SystemMessage carries instructions for the model.
type SystemMessage struct {
	Content string
}

// UserMessage carries the caller's question.
type UserMessage struct {
	Content string
}

// AssistantMessage is the canonical reply of any backend. Content and
// ToolCalls may both be empty when the backend returned nothing usable.
type AssistantMessage struct {
	Content   string
	ToolCalls []ToolCall
	// Thinking holds a backend reasoning trace, if the backend exposes one.
	Thinking string
	// Raw is a rendering of the backend reply kept for diagnostics.
	Raw string
}

// ToolMessage answers the ToolCall whose ID equals CallID.
type ToolMessage struct {
	CallID  string
	Name    string
	Content string
}

// ToolCall is a model request to run a named tool.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (SystemMessage) Role() Role    { return RoleSystem }
func (UserMessage) Role() Role      { return RoleUser }
func (AssistantMessage) Role() Role { return RoleAssistant }
func (ToolMessage) Role() Role      { return RoleTool }

func (SystemMessage) isMessage()    {}
func (UserMessage) isMessage()      {}
func (AssistantMessage) isMessage() {}
func (ToolMessage) isMessage()      {}

// HasToolCalls reports whether the model asked for at least one tool.
func (m AssistantMessage) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// HasContent reports whether the reply carries non-blank prose.
func (m AssistantMessage) HasContent() bool { return strings.TrimSpace(m.Content) != "" }

// Conversation is the ordered, append-only exchange of one question.
type Conversation []Message

// Append returns the conversation with msgs added at the end.
func (c Conversation) Append(msgs ...Message) Conversation {
	return append(c, msgs...)
}

// ToolResult finds the tool message answering callID.
func (c Conversation) ToolResult(callID string) (ToolMessage, bool) {
	for _, msg := range c {
		if tm, ok := msg.(ToolMessage); ok && tm.CallID == callID {
			return tm, true
		}
	}
	return ToolMessage{}, false
}

// Last returns the final message, or nil for an empty conversation.
func (c Conversation) Last() Message {
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

// splitSystem separates system instructions from the turns for backends that
// take the system prompt out of band. A conversation made only of system
// instructions is sent as a single user turn, since those backends reject
// requests without one.
func splitSystem(c Conversation) (string, Conversation) {
	var (
		system []string
		rest   = make(Conversation, 0, len(c))
	)
	for _, msg := range c {
		if sm, ok := msg.(SystemMessage); ok {
			system = append(system, sm.Content)
			continue
		}
		rest = append(rest, msg)
	}
	joined := strings.Join(system, "\n\n")
	if len(rest) == 0 && joined != "" {
		return "", Conversation{UserMessage{Content: joined}}
	}
	return joined, rest
}
