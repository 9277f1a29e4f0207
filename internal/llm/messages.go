// Package llm defines the boundary with the language-model runner: a
// closed set of message variants, tool-call shapes, and the Runner
// capability interface. No provider integration lives here.
package llm

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Role tags a message variant. The set is closed; consumers switch on the
// tag rather than extending the hierarchy.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
)

// Message is one entry in a model conversation history.
type Message interface {
	Role() Role
}

// SystemMessage carries instructions for the model.
type SystemMessage struct {
	Content string
}

func (SystemMessage) Role() Role { return RoleSystem }

// UserMessage carries user text and optional base64-encoded images.
type UserMessage struct {
	Content string
	Images  []string
}

func (UserMessage) Role() Role { return RoleUser }

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// NewToolCallID generates a unique tool call identifier.
func NewToolCallID() string {
	return uuid.NewString()
}

// AIMessage is the model's response, possibly carrying tool calls.
type AIMessage struct {
	Content   string
	ToolCalls []ToolCall
}

func (AIMessage) Role() Role { return RoleAI }

// ToolResponseMessage feeds a tool result back to the model, keyed by the
// originating call id.
type ToolResponseMessage struct {
	CallID  string
	Content string
}

func (ToolResponseMessage) Role() Role { return RoleTool }

// ToolResponseFromResult builds a tool response from an arbitrary result:
// strings pass through, anything else is JSON-serialized.
func ToolResponseFromResult(callID string, result any) (ToolResponseMessage, error) {
	if s, ok := result.(string); ok {
		return ToolResponseMessage{CallID: callID, Content: s}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return ToolResponseMessage{}, fmt.Errorf("serialize tool result for call %s: %w", callID, err)
	}
	return ToolResponseMessage{CallID: callID, Content: string(data)}, nil
}
