// Package config handles router configuration loading and validation.
package config

import (
	"os"
	"regexp"

	"github.com/BurntSushi/toml"

	apperrors "github.com/relay-ai/relay/internal/errors"
	"github.com/relay-ai/relay/internal/logging"
)

// Default returns the default configuration. The router ships disabled;
// the host opts in by setting router.enabled.
func Default() *Config {
	return &Config{
		Router: RouterConfig{
			Enabled:    false,
			Preference: PreferLocal,
			LocalModel: ModelRefConfig{Provider: "ollama", ID: "functiongemma"},
			Routing: RoutingConfig{
				ComplexityThreshold: 0.5,
			},
			Fallback: FallbackConfig{
				OnCloudUnavailable: CloudFallbackLocalText,
				OnLocalError:       LocalFallbackCloud,
			},
			Identity: IdentityConfig{
				IdentityFile:    "IDENTITY.md",
				PersonalityFile: "PERSONALITY.md",
				UserFile:        "USER.md",
			},
		},
	}
}

// Load loads the configuration from the given path. A missing file
// returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "failed to parse config", apperrors.CategoryPermanent)
	}

	applyDefaults(&cfg.Router)
	return cfg, nil
}

// applyDefaults fills zero values left by a partial TOML overlay.
func applyDefaults(rc *RouterConfig) {
	if rc.Preference == "" {
		rc.Preference = PreferLocal
	}
	if rc.LocalModel.Provider == "" && rc.LocalModel.ID == "" {
		rc.LocalModel = ModelRefConfig{Provider: "ollama", ID: "functiongemma"}
	}
	if rc.Routing.ComplexityThreshold == 0 {
		rc.Routing.ComplexityThreshold = 0.5
	}
	if rc.Fallback.OnCloudUnavailable == "" {
		rc.Fallback.OnCloudUnavailable = CloudFallbackLocalText
	}
	if rc.Fallback.OnLocalError == "" {
		rc.Fallback.OnLocalError = LocalFallbackCloud
	}
	if rc.Identity.IdentityFile == "" {
		rc.Identity.IdentityFile = "IDENTITY.md"
	}
	if rc.Identity.PersonalityFile == "" {
		rc.Identity.PersonalityFile = "PERSONALITY.md"
	}
	if rc.Identity.UserFile == "" {
		rc.Identity.UserFile = "USER.md"
	}
}

// Validate checks the router block for fatal configuration errors.
func (rc *RouterConfig) Validate() error {
	if !rc.Preference.Valid() {
		return apperrors.Permanent(apperrors.CodeConfigInvalid, "unknown preference: "+string(rc.Preference))
	}
	if rc.LocalModel.Provider == "" || rc.LocalModel.ID == "" {
		return apperrors.Permanent(apperrors.CodeConfigInvalid, "local model is required")
	}
	if !rc.Fallback.OnCloudUnavailable.Valid() {
		return apperrors.Permanent(apperrors.CodeConfigInvalid, "unknown fallback.on_cloud_unavailable: "+string(rc.Fallback.OnCloudUnavailable))
	}
	if !rc.Fallback.OnLocalError.Valid() {
		return apperrors.Permanent(apperrors.CodeConfigInvalid, "unknown fallback.on_local_error: "+string(rc.Fallback.OnLocalError))
	}
	return nil
}

// Routing carries the compiled routing parameters. Built once at wrapper
// construction and immutable afterwards.
type Routing struct {
	ComplexityThreshold    float64
	ForceCloud             []*regexp.Regexp
	ForceLocal             []*regexp.Regexp
	MaxLocalResponseTokens int
}

// Compile compiles the routing pattern lists. Patterns compile
// case-insensitively; a pattern that fails to compile is logged as a
// warning and dropped, never failing startup.
func (rc RoutingConfig) Compile(log *logging.Logger) *Routing {
	return &Routing{
		ComplexityThreshold:    rc.ComplexityThreshold,
		ForceCloud:             compilePatterns(rc.ForceCloudPatterns, "force_cloud", log),
		ForceLocal:             compilePatterns(rc.ForceLocalPatterns, "force_local", log),
		MaxLocalResponseTokens: rc.MaxLocalResponseTokens,
	}
}

func compilePatterns(patterns []string, list string, log *logging.Logger) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			log.Warnf("[%s] dropping pattern %q: %v", apperrors.CodePatternCompile, p, err)
			continue
		}
		out = append(out, re)
	}
	return out
}
