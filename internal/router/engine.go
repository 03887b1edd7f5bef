// Package router implements the routing decision engine.
package router

import (
	"github.com/google/uuid"

	"github.com/relay-ai/relay/internal/classifier"
	"github.com/relay-ai/relay/internal/config"
	"github.com/relay-ai/relay/internal/credentials"
	apperrors "github.com/relay-ai/relay/internal/errors"
	"github.com/relay-ai/relay/internal/logging"
	"github.com/relay-ai/relay/internal/model"
)

// cloudProviders are recognised for cloud session affinity: a tool
// result following an assistant turn from one of these keeps the
// conversation on cloud.
var cloudProviders = map[string]bool{
	"anthropic":  true,
	"openai":     true,
	"google":     true,
	"openrouter": true,
	"xai":        true,
	"groq":       true,
	"mistral":    true,
}

// capabilityTags mark prompts needing real-world data a local model
// cannot fetch.
var capabilityTags = []string{"search", "recommendation", "real-time", "shopping"}

// codeTags mark code-synthesis prompts the text-only local model
// handles poorly; at moderate scores these still escalate to cloud.
var codeTags = []string{"implementation", "refactoring"}

// toolLikeTags mark prompts the local tool model handles reliably.
var toolLikeTags = []string{"file-read", "directory", "command", "tool-heavy-ctx", "post-tool", "confirmation"}

// strongComplexity is the score at or above which prefer-local stops settling
// for the local text model.
const strongComplexity = 0.7

// Models holds the resolved backends. Local is mandatory.
type Models struct {
	Local     *model.Model
	LocalText *model.Model
	Cloud     *model.Model
}

// Engine combines classifier output, preference, model availability and
// credential presence into a routing decision.
type Engine struct {
	pref         config.Preference
	fallback     config.FallbackConfig
	routing      *config.Routing
	models       Models
	creds        *credentials.Resolver
	cloudBreaker *apperrors.CircuitBreaker
	log          *logging.Logger
}

// NewEngine creates a decision engine over resolved models.
func NewEngine(cfg *config.RouterConfig, routing *config.Routing, models Models, creds *credentials.Resolver, log *logging.Logger) *Engine {
	return &Engine{
		pref:         cfg.Preference,
		fallback:     cfg.Fallback,
		routing:      routing,
		models:       models,
		creds:        creds,
		cloudBreaker: apperrors.NewCircuitBreaker("cloud", nil),
		log:          log,
	}
}

// cloudAvailable is true iff a cloud model is resolved, a credential
// exists for its provider, and the cloud breaker is not open. The
// breaker term means a cloud-only preference degrades to local while
// cloud is failing repeatedly, like any other cloud outage.
func (e *Engine) cloudAvailable() bool {
	return e.models.Cloud != nil &&
		e.creds.Has(e.models.Cloud.Provider) &&
		e.cloudBreaker.Available()
}

// Decide picks a target for the context. The returned decision always
// carries a non-nil model; an error is only possible under the "error"
// cloud-unavailable fallback policy.
func (e *Engine) Decide(c *model.Context) (*model.Decision, error) {
	res := classifier.Classify(c, e.routing)
	cloudOK := e.cloudAvailable()
	e.log.Debugf("classified score=%.2f reason=%s tags=%v cloud=%v", res.Score, res.Reason, res.Tags, cloudOK)

	// 1-2. Preference overrides everything else.
	switch e.pref {
	case config.LocalOnly:
		return e.decision(model.TargetLocal, res, "pref:local-only"), nil
	case config.CloudOnly:
		if cloudOK {
			return e.decision(model.TargetCloud, res, "pref:cloud-only"), nil
		}
		e.log.Warnf("preference is cloud-only but cloud is unavailable, using local")
		return e.decision(model.TargetLocal, res, "pref:cloud-only-degraded"), nil
	}

	// 3. Operator force-cloud patterns.
	if res.Reason == classifier.ReasonForceCloud {
		if cloudOK {
			return e.decision(model.TargetCloud, res, "force-cloud"), nil
		}
		return e.cloudUnavailable(res, "force-cloud-degraded")
	}

	// Cloud session affinity: a tool result after a cloud assistant turn
	// continues on cloud even though the turn itself looks simple.
	if res.Reason == classifier.ReasonPostTool && cloudOK && cloudProviders[c.LastAssistantProvider()] {
		return e.decision(model.TargetCloud, res, "cloud-affinity"), nil
	}

	// 4. Force-local patterns and local post-tool turns.
	if res.Reason == classifier.ReasonForceLocal {
		return e.decision(model.TargetLocal, res, "force-local"), nil
	}
	if res.Reason == classifier.ReasonPostTool {
		return e.decision(model.TargetLocal, res, "post-tool-turn"), nil
	}

	// 5. Capability gate: real-world data needs cloud.
	if cloudOK && hasAny(res, capabilityTags) {
		return e.decision(model.TargetCloud, res, "cloud-capability"), nil
	}

	// 6. Complex prompt.
	if res.Score >= e.routing.ComplexityThreshold {
		return e.decideComplex(res, cloudOK)
	}

	// 7. Simple task.
	if hasAny(res, toolLikeTags) {
		return e.decision(model.TargetLocal, res, "simple+tool"), nil
	}
	if e.pref == config.PreferCloud && cloudOK {
		return e.decision(model.TargetCloud, res, "simple+cloud"), nil
	}
	if e.models.LocalText != nil {
		return e.decision(model.TargetLocalText, res, "simple+text"), nil
	}
	return e.decision(model.TargetLocal, res, "simple+local"), nil
}

// decideComplex handles scores at or above the threshold.
func (e *Engine) decideComplex(res classifier.Result, cloudOK bool) (*model.Decision, error) {
	if e.pref == config.PreferLocal &&
		res.Score < strongComplexity &&
		e.models.LocalText != nil &&
		!hasAny(res, codeTags) {
		return e.decision(model.TargetLocalText, res, "complex+text"), nil
	}
	if cloudOK {
		return e.decision(model.TargetCloud, res, "complex+cloud"), nil
	}
	return e.cloudUnavailable(res, "complex-degraded")
}

// cloudUnavailable degrades a cloud-bound decision per the configured
// fallback policy.
func (e *Engine) cloudUnavailable(res classifier.Result, reason string) (*model.Decision, error) {
	switch e.fallback.OnCloudUnavailable {
	case config.CloudFallbackLocal:
		return e.decision(model.TargetLocal, res, reason), nil
	case config.CloudFallbackError:
		return nil, apperrors.New(apperrors.CodeCredentialMissing, "cloud model required but unavailable", apperrors.CategoryDegraded)
	default:
		if e.models.LocalText != nil {
			return e.decision(model.TargetLocalText, res, reason), nil
		}
		return e.decision(model.TargetLocal, res, reason), nil
	}
}

// decision builds a Decision for the target, degrading local-text to
// local when no text model is configured. The model is never nil.
func (e *Engine) decision(target model.Target, res classifier.Result, reason string) *model.Decision {
	var m *model.Model
	switch target {
	case model.TargetCloud:
		m = e.models.Cloud
	case model.TargetLocalText:
		if e.models.LocalText != nil {
			m = e.models.LocalText
		} else {
			target = model.TargetLocal
			m = e.models.Local
		}
	default:
		m = e.models.Local
	}
	return &model.Decision{
		ID:     uuid.NewString(),
		Target: target,
		Model:  m,
		Score:  res.Score,
		Reason: reason,
		Tags:   res.Tags,
	}
}

func hasAny(res classifier.Result, tags []string) bool {
	for _, t := range tags {
		if res.HasTag(t) {
			return true
		}
	}
	return false
}
