// Package classifier scores conversation contexts for routing.
//
// Classification flow:
// 1. Force patterns (operator policy, short-circuits everything)
// 2. Post-tool-turn shortcut (summarising tool output is local work)
// 3. Weighted keyword scoring over the last user message
package classifier

import (
	"strings"

	"github.com/relay-ai/relay/internal/config"
	"github.com/relay-ai/relay/internal/model"
)

// Classification reasons.
const (
	ReasonForceCloud = "force-cloud"
	ReasonForceLocal = "force-local"
	ReasonPostTool   = "post-tool-turn"
	ReasonHeuristic  = "heuristic"
)

// toolHeavyWindow is how many trailing messages are scanned for tool calls.
const toolHeavyWindow = 10

// Result is the classifier output.
type Result struct {
	Score  float64  `json:"score"`
	Reason string   `json:"reason"`
	Tags   []string `json:"tags,omitempty"`
}

// HasTag reports whether the result carries the given tag.
func (r Result) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Classify scores a context in [0, 1]. Higher means more complex.
// Only the last user message text plus lightweight conversation
// features are inspected.
func Classify(c *model.Context, routing *config.Routing) Result {
	text := c.LastUserText()

	// Force patterns short-circuit all scoring: cloud list first.
	for _, re := range routing.ForceCloud {
		if re.MatchString(text) {
			return Result{Score: 1.0, Reason: ReasonForceCloud, Tags: []string{re.String()}}
		}
	}
	for _, re := range routing.ForceLocal {
		if re.MatchString(text) {
			return Result{Score: 0.0, Reason: ReasonForceLocal, Tags: []string{re.String()}}
		}
	}

	// Post-tool turn: the model is only summarising a tool's output.
	if c.EndsWithToolResult() {
		return Result{Score: 0.0, Reason: ReasonPostTool, Tags: []string{"post-tool"}}
	}

	return score(c, text)
}

func score(c *model.Context, text string) Result {
	var (
		score float64
		tags  []string
	)

	words := len(strings.Fields(text))
	if words > 100 {
		score += 0.15
		tags = append(tags, "long-prompt")
	}
	if words > 300 {
		score += 0.15
		tags = append(tags, "very-long-prompt")
	}

	// Each matched keyword adds its family weight; the family tag is
	// pushed once. complexTags counts the distinct complexity tags, the
	// unit the multi-signal boost works in.
	complexTags := 0
	for _, f := range complexFamilies {
		hits := 0
		for _, re := range f.patterns {
			if re.MatchString(text) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score += f.weight * float64(hits)
		complexTags++
		tags = append(tags, f.tag)
	}

	for _, f := range simpleFamilies {
		for _, re := range f.patterns {
			if re.MatchString(text) {
				score += f.weight
				tags = append(tags, f.tag)
				break
			}
		}
	}

	if complexTags >= 2 {
		score += 0.15
		tags = append(tags, "multi-signal")
	}
	if words > 12 && complexTags >= 1 {
		score += 0.10
		tags = append(tags, "detailed-query")
	}

	// Conversations already deep in tool calls stay local.
	if toolCallCount(c) > 3 {
		score -= 0.10
		tags = append(tags, "tool-heavy-ctx")
	}

	return Result{Score: clamp(score), Reason: ReasonHeuristic, Tags: tags}
}

// toolCallCount counts tool-call content parts in the trailing window.
func toolCallCount(c *model.Context) int {
	start := len(c.Messages) - toolHeavyWindow
	if start < 0 {
		start = 0
	}
	count := 0
	for _, m := range c.Messages[start:] {
		for _, p := range m.Parts {
			if p.Type == model.PartToolCall {
				count++
			}
		}
	}
	return count
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
