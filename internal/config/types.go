// Package config provides configuration types for the hybrid router.
package config

import "github.com/relay-ai/relay/internal/model"

// Config is the subtree of the host configuration the router consumes:
// the [router] block plus the top-level [auth.profiles] map.
// Unrecognised keys are ignored by the TOML decoder.
type Config struct {
	Router RouterConfig `toml:"router"`
	Auth   AuthConfig   `toml:"auth"`
}

// AuthConfig carries the host's credential profiles keyed by provider.
type AuthConfig struct {
	Profiles map[string]AuthProfile `toml:"profiles"`
}

// AuthProfile is one configured credential.
type AuthProfile struct {
	APIKey     string `toml:"api_key"`
	OAuthToken string `toml:"oauth_token"`
}

// RouterConfig configures the hybrid router. Immutable after startup.
type RouterConfig struct {
	Enabled        bool            `toml:"enabled"`
	Preference     Preference      `toml:"preference"`
	LocalModel     ModelRefConfig  `toml:"local_model"`
	LocalTextModel *ModelRefConfig `toml:"local_text_model"`
	CloudModel     *ModelRefConfig `toml:"cloud_model"`
	Routing        RoutingConfig   `toml:"routing"`
	Fallback       FallbackConfig  `toml:"fallback"`
	Identity       IdentityConfig  `toml:"identity"`
	Journal        JournalConfig   `toml:"journal"`
}

// ModelRefConfig references a backend model.
type ModelRefConfig struct {
	Provider string `toml:"provider"`
	ID       string `toml:"id"`
}

// Ref converts to the model-layer reference.
func (m ModelRefConfig) Ref() model.ModelRef {
	return model.ModelRef{Provider: m.Provider, ID: m.ID}
}

// RoutingConfig holds the routing parameters and pattern lists.
type RoutingConfig struct {
	ComplexityThreshold    float64  `toml:"complexity_threshold"`
	ForceCloudPatterns     []string `toml:"force_cloud_patterns"`
	ForceLocalPatterns     []string `toml:"force_local_patterns"`
	MaxLocalResponseTokens int      `toml:"max_local_response_tokens"`
}

// FallbackConfig sets the degradation policy.
type FallbackConfig struct {
	OnCloudUnavailable CloudFallback `toml:"on_cloud_unavailable"`
	OnLocalError       LocalFallback `toml:"on_local_error"`
}

// IdentityConfig locates the workspace identity files.
type IdentityConfig struct {
	WorkspaceDir    string `toml:"workspace_dir"`
	IdentityFile    string `toml:"identity_file"`
	PersonalityFile string `toml:"personality_file"`
	UserFile        string `toml:"user_file"`
}

// JournalConfig configures the optional decision journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Preference is the global dispatch bias.
type Preference string

const (
	PreferLocal Preference = "prefer-local"
	PreferCloud Preference = "prefer-cloud"
	LocalOnly   Preference = "local-only"
	CloudOnly   Preference = "cloud-only"
)

// Valid reports whether the preference is a known value.
func (p Preference) Valid() bool {
	switch p {
	case PreferLocal, PreferCloud, LocalOnly, CloudOnly:
		return true
	}
	return false
}

// CloudFallback is the target used when cloud is preferred but unavailable.
type CloudFallback string

const (
	CloudFallbackLocalText CloudFallback = "local-text"
	CloudFallbackLocal     CloudFallback = "local"
	CloudFallbackError     CloudFallback = "error"
)

// Valid reports whether the fallback mode is a known value.
func (f CloudFallback) Valid() bool {
	switch f {
	case CloudFallbackLocalText, CloudFallbackLocal, CloudFallbackError:
		return true
	}
	return false
}

// LocalFallback is the policy applied when a local call fails.
type LocalFallback string

const (
	LocalFallbackCloud LocalFallback = "cloud"
	LocalFallbackError LocalFallback = "error"
)

// Valid reports whether the fallback mode is a known value.
func (f LocalFallback) Valid() bool {
	switch f {
	case LocalFallbackCloud, LocalFallbackError:
		return true
	}
	return false
}
