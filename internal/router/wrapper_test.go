package router

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relay-ai/relay/internal/config"
	apperrors "github.com/relay-ai/relay/internal/errors"
	"github.com/relay-ai/relay/internal/logging"
	"github.com/relay-ai/relay/internal/model"
)

var hostResolver = model.ResolverFunc(func(_ context.Context, ref model.ModelRef) (*model.Model, error) {
	return &model.Model{Provider: ref.Provider, ID: ref.ID}, nil
})

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Router.Enabled = true
	cfg.Router.LocalTextModel = &config.ModelRefConfig{Provider: "ollama", ID: "gemma3"}
	cfg.Router.CloudModel = &config.ModelRefConfig{Provider: "anthropic", ID: "claude-sonnet-4-5"}
	cfg.Router.Identity.WorkspaceDir = t.TempDir()
	cfg.Auth.Profiles = map[string]config.AuthProfile{
		"anthropic": {APIKey: "sk-ant-test"},
	}
	return cfg
}

func testWrapper(t *testing.T, cfg *config.Config) *Wrapper {
	t.Helper()

	w, err := New(context.Background(), cfg, hostResolver,
		WithLogger(logging.NewWithWriter(io.Discard, logging.LevelError)))
	require.NoError(t, err)
	require.NotNil(t, w)
	return w
}

// call captures one delegated invocation.
type call struct {
	model *model.Model
	ctx   *model.Context
	opts  *model.Options
}

func recordingStream(calls *[]call, result model.Stream, err error) model.StreamFunc {
	return func(_ context.Context, m *model.Model, c *model.Context, o *model.Options) (model.Stream, error) {
		*calls = append(*calls, call{model: m, ctx: c, opts: o})
		return result, err
	}
}

func TestNewReturnsNilWhenDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Router.Enabled = false

	w, err := New(context.Background(), cfg, hostResolver)
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestNilWrapperIsPassThrough(t *testing.T) {
	var w *Wrapper

	var calls []call
	fn := recordingStream(&calls, "stream-1", nil)

	wrapped := w.Wrap(fn)
	stream, err := wrapped(context.Background(), localModel, userCtx("hi"), &model.Options{})
	require.NoError(t, err)
	assert.Equal(t, "stream-1", stream)
	assert.Len(t, calls, 1)
}

func TestNewFailsWithoutLocalModel(t *testing.T) {
	cfg := testConfig(t)
	failing := model.ResolverFunc(func(_ context.Context, ref model.ModelRef) (*model.Model, error) {
		if ref.Provider == "ollama" && ref.ID == "functiongemma" {
			return nil, errors.New("no such model")
		}
		return &model.Model{Provider: ref.Provider, ID: ref.ID}, nil
	})

	_, err := New(context.Background(), cfg, failing)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeModelResolve))
}

func TestNewToleratesMissingCloudModel(t *testing.T) {
	cfg := testConfig(t)
	failing := model.ResolverFunc(func(_ context.Context, ref model.ModelRef) (*model.Model, error) {
		if ref.Provider == "anthropic" {
			return nil, errors.New("not configured")
		}
		return &model.Model{Provider: ref.Provider, ID: ref.ID}, nil
	})

	w, err := New(context.Background(), cfg, failing,
		WithLogger(logging.NewWithWriter(io.Discard, logging.LevelError)))
	require.NoError(t, err)
	assert.Nil(t, w.models.Cloud)
}

func TestNewRejectsInvalidPreference(t *testing.T) {
	cfg := testConfig(t)
	cfg.Router.Preference = "prefer-mainframe"

	_, err := New(context.Background(), cfg, hostResolver)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfigInvalid))
}

func TestWrapRoutesSimplePromptToTextModel(t *testing.T) {
	w := testWrapper(t, testConfig(t))

	var calls []call
	wrapped := w.Wrap(recordingStream(&calls, "stream-1", nil))

	stream, err := wrapped(context.Background(), localModel, userCtx("What is 2 + 2?"), &model.Options{})
	require.NoError(t, err)
	assert.Equal(t, "stream-1", stream)

	require.Len(t, calls, 1)
	assert.Equal(t, "gemma3", calls[0].model.ID)
	assert.Empty(t, calls[0].ctx.Tools)
	assert.Contains(t, calls[0].ctx.SystemPrompt, textBasePrompt)
}

func TestWrapInjectsCloudCredentialOnProviderSwitch(t *testing.T) {
	w := testWrapper(t, testConfig(t))

	var calls []call
	wrapped := w.Wrap(recordingStream(&calls, "stream-1", nil))

	orig := &model.Options{Metadata: map[string]any{"session": "s1"}}
	_, err := wrapped(context.Background(), localModel, userCtx("what are the latest headlines today?"), orig)
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, "anthropic", calls[0].model.Provider)
	assert.Equal(t, "sk-ant-test", calls[0].opts.APIKey)
	assert.Equal(t, "s1", calls[0].opts.Metadata["session"])

	// The caller's options bag is never mutated.
	assert.Empty(t, orig.APIKey)
}

func TestWrapCloudContextPassesThrough(t *testing.T) {
	w := testWrapper(t, testConfig(t))

	var calls []call
	wrapped := w.Wrap(recordingStream(&calls, "stream-1", nil))

	ctx := userCtx("what are the latest headlines today?")
	ctx.SystemPrompt = "host prompt"
	_, err := wrapped(context.Background(), localModel, ctx, nil)
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Same(t, ctx, calls[0].ctx)
}

func TestWrapAppliesLocalResponseCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Router.Routing.MaxLocalResponseTokens = 256
	w := testWrapper(t, cfg)

	var calls []call
	wrapped := w.Wrap(recordingStream(&calls, "stream-1", nil))

	orig := &model.Options{}
	_, err := wrapped(context.Background(), localModel, userCtx("yes"), orig)
	require.NoError(t, err)

	require.Len(t, calls, 1)
	assert.Equal(t, 256, calls[0].opts.MaxResponseTokens)
	assert.Zero(t, orig.MaxResponseTokens)
}

func TestCredentialCacheIsMonotonic(t *testing.T) {
	w := testWrapper(t, testConfig(t))

	key, err := w.credentialFor(context.Background(), "anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test", key)

	// Overwrite the cached entry: the next lookup returns it instead of
	// consulting the resolver again, so the cached key is reused for the
	// wrapper's lifetime.
	w.mu.Lock()
	w.keys["anthropic"] = "sk-ant-cached"
	w.mu.Unlock()

	key, err = w.credentialFor(context.Background(), "anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-cached", key)
}

func TestLocalErrorFallsBackToCloud(t *testing.T) {
	w := testWrapper(t, testConfig(t))

	var calls []call
	wrapped := w.Wrap(func(_ context.Context, m *model.Model, c *model.Context, o *model.Options) (model.Stream, error) {
		calls = append(calls, call{model: m, ctx: c, opts: o})
		if m.Provider == "ollama" {
			return nil, errors.New("connection refused")
		}
		return "cloud-stream", nil
	})

	stream, err := wrapped(context.Background(), localModel, userCtx("yes"), &model.Options{})
	require.NoError(t, err)
	assert.Equal(t, "cloud-stream", stream)

	require.Len(t, calls, 2)
	assert.Equal(t, "ollama", calls[0].model.Provider)
	assert.Equal(t, "anthropic", calls[1].model.Provider)
	assert.Equal(t, "sk-ant-test", calls[1].opts.APIKey)
	assert.Equal(t, int64(1), w.Stats().Fallbacks)
}

func TestLocalErrorFallbackRetriesCloudDispatch(t *testing.T) {
	w := testWrapper(t, testConfig(t))
	w.retry = &apperrors.Policy{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
		RetryIf: func(err error) bool {
			return apperrors.GetCategory(err) == apperrors.CategoryTemporary
		},
	}

	cloudAttempts := 0
	wrapped := w.Wrap(func(_ context.Context, m *model.Model, _ *model.Context, _ *model.Options) (model.Stream, error) {
		if m.Provider == "ollama" {
			return nil, errors.New("connection refused")
		}
		cloudAttempts++
		if cloudAttempts == 1 {
			return nil, errors.New("bad gateway")
		}
		return "cloud-stream", nil
	})

	stream, err := wrapped(context.Background(), localModel, userCtx("yes"), &model.Options{})
	require.NoError(t, err)
	assert.Equal(t, "cloud-stream", stream)
	assert.Equal(t, 2, cloudAttempts)
}

func TestLocalErrorPropagatesUnderErrorPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Router.Fallback.OnLocalError = config.LocalFallbackError
	w := testWrapper(t, cfg)

	var calls []call
	wrapped := w.Wrap(recordingStream(&calls, nil, errors.New("connection refused")))

	_, err := wrapped(context.Background(), localModel, userCtx("yes"), &model.Options{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStreamFailed))
	assert.Len(t, calls, 1)
}

func TestWrapCountsDispatches(t *testing.T) {
	w := testWrapper(t, testConfig(t))

	var calls []call
	wrapped := w.Wrap(recordingStream(&calls, "s", nil))

	_, _ = wrapped(context.Background(), localModel, userCtx("yes"), nil)
	_, _ = wrapped(context.Background(), localModel, userCtx("What is 2 + 2?"), nil)
	_, _ = wrapped(context.Background(), localModel, userCtx("what are the latest headlines today?"), nil)

	stats := w.Stats()
	assert.Equal(t, int64(3), stats.Requests)
	assert.Equal(t, int64(1), stats.Local)
	assert.Equal(t, int64(1), stats.LocalText)
	assert.Equal(t, int64(1), stats.Cloud)
	assert.InDelta(t, 66.6, stats.LocalRate, 0.1)
}

func TestWrapConcurrentCalls(t *testing.T) {
	w := testWrapper(t, testConfig(t))

	wrapped := w.Wrap(func(_ context.Context, m *model.Model, _ *model.Context, _ *model.Options) (model.Stream, error) {
		return m.ID, nil
	})

	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			text := "yes"
			if i%2 == 0 {
				text = "what are the latest headlines today?"
			}
			_, err := wrapped(context.Background(), localModel, userCtx(text), &model.Options{})
			assert.NoError(t, err)
		}(i)
	}
	for i := 0; i < 16; i++ {
		<-done
	}

	assert.Equal(t, int64(16), w.Stats().Requests)
}
