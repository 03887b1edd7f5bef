// Package router wraps the host's stream function with hybrid routing.
package router

import (
	"context"
	"sync"

	"github.com/relay-ai/relay/internal/config"
	"github.com/relay-ai/relay/internal/credentials"
	apperrors "github.com/relay-ai/relay/internal/errors"
	"github.com/relay-ai/relay/internal/identity"
	"github.com/relay-ai/relay/internal/journal"
	"github.com/relay-ai/relay/internal/logging"
	"github.com/relay-ai/relay/internal/model"
)

// Wrapper intercepts every model invocation and routes it to one of the
// three backends. All fields except the credential cache are frozen at
// construction; the wrapper is safe for concurrent use.
type Wrapper struct {
	cfg         *config.RouterConfig
	routing     *config.Routing
	models      Models
	engine      *Engine
	preamble    string
	creds       *credentials.Resolver
	log         *logging.Logger
	journal     *journal.Store
	stats       *collector
	retry       *apperrors.Policy
	profilePath string

	// Credential cache: monotonic for the wrapper's lifetime. Once a
	// key is resolved for a provider it is reused, never invalidated.
	mu   sync.Mutex
	keys map[string]string
}

// Option customises wrapper construction.
type Option func(*Wrapper)

// WithLogger overrides the default logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Wrapper) { w.log = l }
}

// WithJournal attaches a decision journal.
func WithJournal(j *journal.Store) Option {
	return func(w *Wrapper) { w.journal = j }
}

// WithProfileFile sets the agent-local credential profile file.
func WithProfileFile(path string) Option {
	return func(w *Wrapper) { w.profilePath = path }
}

// New builds a wrapper from the host configuration. Returns (nil, nil)
// when the router block is disabled; the host then keeps its original
// stream function. Construction fails only on invalid configuration or
// an unresolvable local tool model.
func New(ctx context.Context, cfg *config.Config, resolver model.Resolver, opts ...Option) (*Wrapper, error) {
	if cfg == nil || !cfg.Router.Enabled {
		return nil, nil
	}
	if err := cfg.Router.Validate(); err != nil {
		return nil, err
	}

	w := &Wrapper{
		cfg:   &cfg.Router,
		log:   logging.New(),
		stats: newCollector(),
		retry: apperrors.DispatchPolicy(),
		keys:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.creds = credentials.New(cfg.Auth.Profiles, w.profilePath)
	w.routing = cfg.Router.Routing.Compile(w.log)
	w.preamble = identity.Load(cfg.Router.Identity, w.log).Preamble()

	models, err := resolveModels(ctx, &cfg.Router, resolver, w.log)
	if err != nil {
		return nil, err
	}
	w.models = models
	w.engine = NewEngine(&cfg.Router, w.routing, models, w.creds, w.log)

	w.log.Debugf("installed: local=%s local-text=%s cloud=%s preference=%s",
		models.Local, models.LocalText, models.Cloud, cfg.Router.Preference)
	return w, nil
}

// resolveModels binds the three references via the host resolver. The
// local tool model is mandatory; the others degrade with a warning.
func resolveModels(ctx context.Context, rc *config.RouterConfig, resolver model.Resolver, log *logging.Logger) (Models, error) {
	var out Models

	local, err := resolver.Resolve(ctx, rc.LocalModel.Ref())
	if err != nil || local == nil {
		return out, apperrors.Wrap(err, apperrors.CodeModelResolve,
			"cannot resolve local model "+rc.LocalModel.Ref().String(), apperrors.CategoryPermanent)
	}
	out.Local = local

	if rc.LocalTextModel != nil {
		m, err := resolver.Resolve(ctx, rc.LocalTextModel.Ref())
		if err != nil {
			log.Warnf("[%s] local text model %s unavailable: %v", apperrors.CodeModelResolve, rc.LocalTextModel.Ref(), err)
		} else {
			out.LocalText = m
		}
	}
	if rc.CloudModel != nil {
		m, err := resolver.Resolve(ctx, rc.CloudModel.Ref())
		if err != nil {
			log.Warnf("[%s] cloud model %s unavailable: %v", apperrors.CodeModelResolve, rc.CloudModel.Ref(), err)
		} else {
			out.Cloud = m
		}
	}
	return out, nil
}

// Wrap returns a drop-in replacement for streamFn that routes each call.
// A nil wrapper returns streamFn unchanged.
func (w *Wrapper) Wrap(streamFn model.StreamFunc) model.StreamFunc {
	if w == nil {
		return streamFn
	}

	return func(ctx context.Context, defaultModel *model.Model, c *model.Context, opts *model.Options) (model.Stream, error) {
		decision, err := w.engine.Decide(c)
		if err != nil {
			return nil, err
		}

		w.log.Infof("-> %s model=%s score=%.2f reason=%s tags=%v",
			decision.Target, decision.Model, decision.Score, decision.Reason, decision.Tags)

		effOpts := w.prepareOptions(ctx, decision, defaultModel, opts)
		effCtx := AdaptContext(c, decision.Target, w.preamble)

		stream, err := streamFn(ctx, decision.Model, effCtx, effOpts)
		if decision.Target == model.TargetCloud {
			w.engine.cloudBreaker.RecordResult(err)
		}

		if err != nil && decision.Target != model.TargetCloud {
			if stream2, err2, handled := w.localErrorFallback(ctx, streamFn, c, opts, err); handled {
				w.record(decision)
				return stream2, err2
			}
		}

		w.record(decision)
		if err != nil {
			w.stats.errors.Add(1)
			return stream, apperrors.Wrap(err, apperrors.CodeStreamFailed,
				"stream to "+decision.Model.String()+" failed", apperrors.CategoryTemporary)
		}
		return stream, nil
	}
}

// prepareOptions clones the options bag when the call needs a different
// credential or the local response cap. The input is never mutated.
func (w *Wrapper) prepareOptions(ctx context.Context, decision *model.Decision, defaultModel *model.Model, opts *model.Options) *model.Options {
	out := opts

	// Resolve a credential only when the target provider differs from
	// the call's default. Failure forwards the original options; the
	// downstream call then fails with the host's usual auth error.
	if defaultModel == nil || decision.Model.Provider != defaultModel.Provider {
		if key, err := w.credentialFor(ctx, decision.Model.Provider); err != nil {
			w.log.Warnf("credential resolution for %s failed: %v", decision.Model.Provider, err)
		} else if key != "" {
			out = out.Clone()
			out.APIKey = key
		}
	}

	if decision.Target != model.TargetCloud && w.routing.MaxLocalResponseTokens > 0 {
		if out == opts {
			out = out.Clone()
		}
		out.MaxResponseTokens = w.routing.MaxLocalResponseTokens
	}
	return out
}

// credentialFor resolves and caches a provider credential. The cache is
// monotonic: a resolved key is reused for the wrapper's lifetime.
func (w *Wrapper) credentialFor(ctx context.Context, provider string) (string, error) {
	w.mu.Lock()
	if key, ok := w.keys[provider]; ok {
		w.mu.Unlock()
		return key, nil
	}
	w.mu.Unlock()

	key, err := w.creds.Resolve(ctx, provider)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeCredentialMissing) {
			// Local providers usually have no credential; nothing to inject.
			return "", nil
		}
		return "", err
	}

	w.mu.Lock()
	w.keys[provider] = key
	w.mu.Unlock()
	return key, nil
}

// localErrorFallback re-dispatches a synchronously failed local call to
// cloud under the retry policy, when fallback.on_local_error allows it.
// Every attempt here failed before a stream handle existed; a call whose
// stream was already returned is never re-routed.
func (w *Wrapper) localErrorFallback(ctx context.Context, streamFn model.StreamFunc, c *model.Context, opts *model.Options, cause error) (model.Stream, error, bool) {
	if w.cfg.Fallback.OnLocalError != config.LocalFallbackCloud || !w.engine.cloudAvailable() {
		return nil, nil, false
	}

	w.log.Warnf("local call failed (%v), falling back to cloud", cause)
	w.stats.fallbacks.Add(1)

	out := opts
	if key, err := w.credentialFor(ctx, w.models.Cloud.Provider); err != nil {
		w.log.Warnf("credential resolution for %s failed: %v", w.models.Cloud.Provider, err)
	} else if key != "" {
		out = out.Clone()
		out.APIKey = key
	}

	var stream model.Stream
	err := apperrors.Do(ctx, w.retry, func() error {
		s, err := streamFn(ctx, w.models.Cloud, c, out)
		w.engine.cloudBreaker.RecordResult(err)
		if err != nil {
			return err
		}
		stream = s
		return nil
	})
	if err != nil {
		w.stats.errors.Add(1)
		return nil, apperrors.Wrap(err, apperrors.CodeStreamFailed,
			"cloud fallback after local error failed", apperrors.CategoryTemporary), true
	}
	return stream, nil, true
}

// record updates counters and the optional journal.
func (w *Wrapper) record(decision *model.Decision) {
	w.stats.record(string(decision.Target))
	if w.journal == nil {
		return
	}
	if err := w.journal.Record(decision); err != nil {
		w.log.Warnf("journal write failed: %v", err)
	}
}

// Stats returns a snapshot of dispatch counters.
func (w *Wrapper) Stats() *Stats {
	if w == nil {
		return &Stats{}
	}
	return w.stats.snapshot()
}
