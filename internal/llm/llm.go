// Package llm abstracts the vision/language model collaborator behind a
// single Complete call supporting plain text, JSON-constrained output,
// multimodal image input, and function tools.
package llm

import (
	"context"

	"github.com/confidant-ai/confidant/internal/model"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is the model's request to invoke a declared tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one conversation turn. ImageURL (a data URL) makes a user turn
// multimodal. ToolCallID ties a tool turn to the call it answers. raw holds
// the provider-native form of an assistant turn so it can be replayed to the
// provider without lossy reconstruction.
type Message struct {
	Role       Role
	Content    string
	ImageURL   string
	ToolCalls  []ToolCall
	ToolCallID string

	raw any
}

// Tool declares a callable function with a JSON-schema parameter object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is a single round-trip to the model.
type Request struct {
	Messages    []Message
	Tools       []Tool
	JSONMode    bool
	Temperature float64
}

// Response is what one round-trip produced. Either Content or ToolCalls is
// meaningful, mirroring the provider contract.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     model.TokenUsage

	raw any
}

// AssistantTurn converts a response into the assistant message to append to
// the running conversation.
func (r *Response) AssistantTurn() Message {
	return Message{Role: RoleAssistant, Content: r.Content, ToolCalls: r.ToolCalls, raw: r.raw}
}

// Model is the external model collaborator.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// SystemMessage builds a system turn.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage builds a plain-text user turn.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// UserImageMessage builds a multimodal user turn with an image data URL.
func UserImageMessage(content, imageURL string) Message {
	return Message{Role: RoleUser, Content: content, ImageURL: imageURL}
}

// ToolMessage builds a tool-result turn answering toolCallID.
func ToolMessage(content, toolCallID string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}
