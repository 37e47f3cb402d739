package oauth

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/identra/identra/internal/model"
)

// Attributes is the raw attribute map returned by a provider after a
// verified handshake.
type Attributes map[string]any

// extractFunc projects provider attributes onto the canonical identity.
type extractFunc func(attrs Attributes) model.ExternalIdentity

// Registry holds the closed set of supported providers. Asking for a
// provider outside the set is a configuration error surfaced at startup,
// not a runtime panic.
type Registry struct {
	extractors map[model.Provider]extractFunc
}

// NewRegistry creates a registry supporting google and github.
func NewRegistry() *Registry {
	return &Registry{
		extractors: map[model.Provider]extractFunc{
			model.ProviderGoogle: extractGoogle,
			model.ProviderGitHub: extractGitHub,
		},
	}
}

// Supported reports whether provider is in the closed set.
func (r *Registry) Supported(provider model.Provider) bool {
	_, ok := r.extractors[provider]
	return ok
}

// Extract maps the verified attributes of provider to the canonical
// identity tuple.
func (r *Registry) Extract(provider model.Provider, attrs Attributes) (model.ExternalIdentity, error) {
	extract, ok := r.extractors[provider]
	if !ok {
		return model.ExternalIdentity{}, fmt.Errorf("unsupported oauth provider %q", provider)
	}
	return extract(attrs), nil
}

func extractGoogle(attrs Attributes) model.ExternalIdentity {
	return model.ExternalIdentity{
		Provider:  model.ProviderGoogle,
		SubjectID: stringAttr(attrs, "sub"),
		Email:     stringAttr(attrs, "email"),
		Name:      stringAttr(attrs, "name"),
		AvatarURL: stringAttr(attrs, "picture"),
	}
}

func extractGitHub(attrs Attributes) model.ExternalIdentity {
	email := stringAttr(attrs, "email")
	if email == "" {
		// GitHub hides the email for some accounts; fall back to the
		// login-derived address the way the upstream handler does.
		if login := stringAttr(attrs, "login"); login != "" {
			email = login + "@github.com"
		}
	}
	return model.ExternalIdentity{
		Provider:  model.ProviderGitHub,
		SubjectID: stringAttr(attrs, "id"),
		Email:     email,
		Name:      stringAttr(attrs, "name"),
		AvatarURL: stringAttr(attrs, "avatar_url"),
	}
}

func stringAttr(attrs Attributes, key string) string {
	v, ok := attrs[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; keep the exact decimal form,
		// never scientific notation.
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}
