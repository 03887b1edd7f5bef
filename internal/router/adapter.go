// Package router provides per-target context adaptation.
package router

import (
	"github.com/relay-ai/relay/internal/model"
)

// Base prompts appended after the identity preamble. The cloud backend
// keeps the host's full system prompt instead.
const (
	toolBasePrompt = "Use the provided tools for file and shell tasks. " +
		"Call one tool at a time and keep answers short."

	textBasePrompt = "Answer in plain text. You cannot run tools, read files, " +
		"or browse the web. Keep answers short and direct."
)

// AdaptContext rewrites the outgoing context for the chosen target.
// Adaptation is pure: the result is either the input itself (cloud) or a
// fresh structure sharing no mutable state, and adapting twice yields a
// structurally equal result.
func AdaptContext(c *model.Context, target model.Target, preamble string) *model.Context {
	switch target {
	case model.TargetLocal:
		out := c.Clone()
		out.SystemPrompt = preamble + " " + toolBasePrompt
		out.Tools = simplifyTools(c.Tools)
		return out

	case model.TargetLocalText:
		out := c.Clone()
		out.SystemPrompt = preamble + " " + textBasePrompt
		out.Tools = nil
		return out

	default: // cloud
		return c
	}
}

// simplifyTools returns the intersection of the original tools with the
// simplified table, in table order, at most four entries. Each entry is
// a copy with description and schemas replaced; the host's execute
// callback is preserved so dispatch by name still works.
func simplifyTools(tools []model.ToolSchema) []model.ToolSchema {
	var out []model.ToolSchema
	for _, entry := range simplifiedTools {
		for _, orig := range tools {
			if orig.Name != entry.name {
				continue
			}
			out = append(out, model.ToolSchema{
				Name:        entry.name,
				Description: entry.description,
				Parameters:  entry.schema(),
				InputSchema: entry.schema(),
				Execute:     orig.Execute,
			})
			break
		}
	}
	return out
}
