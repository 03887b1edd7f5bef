// Package credentials detects and resolves cloud provider credentials.
//
// Lookup order: configured auth profiles, the agent-local profile file
// (OAuth tokens keyed "{provider}-..."), provider API-key environment
// variables, and finally provider OAuth environment variables.
package credentials

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/relay-ai/relay/internal/config"
	apperrors "github.com/relay-ai/relay/internal/errors"
)

// envKeys maps provider names to their API-key environment variables.
var envKeys = map[string]string{
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"google":     "GOOGLE_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"groq":       "GROQ_API_KEY",
	"xai":        "XAI_API_KEY",
	"mistral":    "MISTRAL_API_KEY",
}

// oauthEnvKeys maps provider names to their OAuth-token environment variables.
var oauthEnvKeys = map[string]string{
	"anthropic": "ANTHROPIC_OAUTH_TOKEN",
}

// profileEntry is one credential in the agent-local profile file.
type profileEntry struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
	APIKey      string `json:"api_key"`
}

func (e profileEntry) value() string {
	switch {
	case e.Token != "":
		return e.Token
	case e.AccessToken != "":
		return e.AccessToken
	default:
		return e.APIKey
	}
}

// Resolver looks up credentials for cloud providers.
type Resolver struct {
	profiles    map[string]config.AuthProfile
	profilePath string
}

// New creates a resolver over the configured auth profiles and the
// agent-local profile file. profilePath may be empty.
func New(profiles map[string]config.AuthProfile, profilePath string) *Resolver {
	return &Resolver{
		profiles:    profiles,
		profilePath: profilePath,
	}
}

// Has reports whether any credential source has an entry for provider.
// It never fails; unreadable sources count as absent.
func (r *Resolver) Has(provider string) bool {
	key, _ := r.lookup(provider)
	return key != ""
}

// Resolve returns the credential for provider.
func (r *Resolver) Resolve(ctx context.Context, provider string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key, err := r.lookup(provider)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeCredentialResolve, "credential lookup failed for "+provider, apperrors.CategoryTemporary)
	}
	if key == "" {
		return "", apperrors.New(apperrors.CodeCredentialMissing, "no credential found for "+provider, apperrors.CategoryDegraded)
	}
	return key, nil
}

func (r *Resolver) lookup(provider string) (string, error) {
	provider = strings.ToLower(provider)

	// (a) configured auth profiles
	if p, ok := r.profiles[provider]; ok {
		if p.APIKey != "" {
			return p.APIKey, nil
		}
		if p.OAuthToken != "" {
			return p.OAuthToken, nil
		}
	}

	// (b) agent-local profile file
	if key, err := r.fromProfileFile(provider); err != nil {
		return "", err
	} else if key != "" {
		return key, nil
	}

	// (c) API-key environment variable
	if env, ok := envKeys[provider]; ok {
		if key := os.Getenv(env); key != "" {
			return key, nil
		}
	}

	// (d) OAuth environment variable
	if env, ok := oauthEnvKeys[provider]; ok {
		if key := os.Getenv(env); key != "" {
			return key, nil
		}
	}

	return "", nil
}

// fromProfileFile scans the agent-local profile file for a
// "{provider}-..." entry. A missing file is not an error.
func (r *Resolver) fromProfileFile(provider string) (string, error) {
	if r.profilePath == "" {
		return "", nil
	}

	data, err := os.ReadFile(r.profilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	var entries map[string]profileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return "", err
	}

	prefix := provider + "-"
	for name, entry := range entries {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			if key := entry.value(); key != "" {
				return key, nil
			}
		}
	}
	return "", nil
}
