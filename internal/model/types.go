// Package model provides the router's data model and host contracts.
package model

import "strings"

// ModelRef identifies a backend by provider and model id.
type ModelRef struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
}

// String returns provider/id.
func (r ModelRef) String() string {
	return r.Provider + "/" + r.ID
}

// IsZero reports whether the reference is empty.
func (r ModelRef) IsZero() bool {
	return r.Provider == "" && r.ID == ""
}

// Model is a resolved backend descriptor.
type Model struct {
	Provider   string `json:"provider"`
	ID         string `json:"id"`
	APIKeyPath string `json:"api_key_path,omitempty"`
}

// Ref returns the reference this model was resolved from.
func (m *Model) Ref() ModelRef {
	return ModelRef{Provider: m.Provider, ID: m.ID}
}

// String returns provider/id.
func (m *Model) String() string {
	if m == nil {
		return "<nil>"
	}
	return m.Provider + "/" + m.ID
}

// Role is a message role.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool-result"
	RoleSystem     Role = "system"
)

// PartType is a content part kind.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
)

// ContentPart is one element of a structured message body.
type ContentPart struct {
	Type PartType `json:"type"`

	// Text for PartText parts.
	Text string `json:"text,omitempty"`

	// Name and Args for PartToolCall parts.
	Name string         `json:"name,omitempty"`
	Args map[string]any `json:"args,omitempty"`

	// Result for PartToolResult parts.
	Result any `json:"result,omitempty"`
}

// Message is one conversation entry. Content carries plain text;
// Parts carries structured content and takes precedence when non-empty.
// Provider and Model record which backend produced an assistant message.
type Message struct {
	Role     Role          `json:"role"`
	Content  string        `json:"content,omitempty"`
	Parts    []ContentPart `json:"parts,omitempty"`
	Provider string        `json:"provider,omitempty"`
	Model    string        `json:"model,omitempty"`
}

// Text returns the message's text, joining text parts with single spaces.
func (m *Message) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var texts []string
	for _, p := range m.Parts {
		if p.Type == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, " ")
}

// IsToolResult reports whether the message carries a tool result, either
// as its role or as a tool-result content part.
func (m *Message) IsToolResult() bool {
	if m.Role == RoleToolResult {
		return true
	}
	for _, p := range m.Parts {
		if p.Type == PartToolResult {
			return true
		}
	}
	return false
}

// ToolSchema describes one tool offered to the model. Execute is the
// host's opaque dispatch callback; the router never invokes it.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
	Execute     any            `json:"-"`
}

// Context is the bundle handed to a single inference call.
type Context struct {
	Messages     []Message    `json:"messages"`
	Tools        []ToolSchema `json:"tools,omitempty"`
	SystemPrompt string       `json:"system_prompt,omitempty"`
}

// LastUserText returns the text of the most recent user message, walking
// the message list from the end. Returns "" when no user message exists.
func (c *Context) LastUserText() string {
	if c == nil {
		return ""
	}
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Text()
		}
	}
	return ""
}

// LastAssistantProvider returns the provider that produced the most
// recent assistant message, or "" when none exists.
func (c *Context) LastAssistantProvider() string {
	if c == nil {
		return ""
	}
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return strings.ToLower(c.Messages[i].Provider)
		}
	}
	return ""
}

// EndsWithToolResult reports whether the last message is a tool result.
func (c *Context) EndsWithToolResult() bool {
	if c == nil || len(c.Messages) == 0 {
		return false
	}
	return c.Messages[len(c.Messages)-1].IsToolResult()
}

// Clone returns a copy whose slices are independent of the receiver.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	out := &Context{SystemPrompt: c.SystemPrompt}
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	if c.Tools != nil {
		out.Tools = make([]ToolSchema, len(c.Tools))
		copy(out.Tools, c.Tools)
	}
	return out
}

// Options is the per-call options bag passed through to the backend.
type Options struct {
	// APIKey overrides the host's default credential for this call.
	APIKey string `json:"api_key,omitempty"`

	// MaxResponseTokens is an advisory response cap for local targets.
	MaxResponseTokens int `json:"max_response_tokens,omitempty"`

	// Metadata carries host-specific extras the router forwards untouched.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Clone returns a copy with an independent metadata map. Nil-safe.
func (o *Options) Clone() *Options {
	if o == nil {
		return &Options{}
	}
	out := &Options{
		APIKey:            o.APIKey,
		MaxResponseTokens: o.MaxResponseTokens,
	}
	if o.Metadata != nil {
		out.Metadata = make(map[string]any, len(o.Metadata))
		for k, v := range o.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Target is the kind of backend chosen for a turn.
type Target string

const (
	TargetLocal     Target = "local"
	TargetLocalText Target = "local-text"
	TargetCloud     Target = "cloud"
)

// Decision is the record produced by the router for each call.
type Decision struct {
	ID     string   `json:"id"`
	Target Target   `json:"target"`
	Model  *Model   `json:"model"`
	Score  float64  `json:"score"`
	Reason string   `json:"reason"`
	Tags   []string `json:"tags,omitempty"`
}
