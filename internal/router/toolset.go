// Package router provides the simplified tool table for local targets.
package router

// simplifiedTool is one entry of the reduced schema set offered to the
// local tool model. The 270M-class default cannot parse rich schemas;
// descriptions stay one sentence and parameters stay flat strings.
type simplifiedTool struct {
	name        string
	description string
	params      []toolParam
}

type toolParam struct {
	name        string
	description string
}

// simplifiedTools is the exhaustive replacement table. Tools present in
// the original context but not named here are dropped for the local
// target; names missing from the original context are never fabricated.
var simplifiedTools = []simplifiedTool{
	{
		name:        "read",
		description: "Read a file.",
		params: []toolParam{
			{name: "path", description: "Path to the file"},
		},
	},
	{
		name:        "exec",
		description: "Run a shell command (ls, cat, git, date, echo, etc.).",
		params: []toolParam{
			{name: "command", description: "The shell command to run"},
		},
	},
	{
		name:        "write",
		description: "Write content to a file.",
		params: []toolParam{
			{name: "path", description: "Path to the file"},
			{name: "content", description: "Content to write"},
		},
	},
	{
		name:        "edit",
		description: "Edit a file by replacing text.",
		params: []toolParam{
			{name: "path", description: "Path to the file"},
			{name: "oldText", description: "Exact text to replace"},
			{name: "newText", description: "Replacement text"},
		},
	},
}

// schema builds a fresh JSON Schema object for the tool. A new map is
// returned on every call so adapted contexts share no mutable state.
func (t simplifiedTool) schema() map[string]any {
	properties := make(map[string]any, len(t.params))
	required := make([]string, 0, len(t.params))
	for _, p := range t.params {
		properties[p.name] = map[string]any{
			"type":        "string",
			"description": p.description,
		}
		required = append(required, p.name)
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
