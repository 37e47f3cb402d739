package cookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/identra/identra/internal/config"
)

// Manager attaches, clears and reads the refresh-token cookie. The cookie
// is the only transport for refresh tokens besides the issuance response
// body; it is HTTP-only and scoped to path "/".
type Manager struct {
	name     string
	httpOnly bool
	secure   bool
	domain   string
	sameSite http.SameSite
}

func NewManager(cfg config.Cookie) *Manager {
	return &Manager{
		name:     cfg.Name,
		httpOnly: cfg.HTTPOnly,
		secure:   cfg.Secure,
		domain:   cfg.Domain,
		sameSite: parseSameSite(cfg.SameSite),
	}
}

// Attach sets the refresh cookie with the configured attributes and adds
// no-store cache headers so intermediaries never cache credential
// material.
func (m *Manager) Attach(w http.ResponseWriter, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: m.httpOnly,
		Secure:   m.secure,
		SameSite: m.sameSite,
	})
	m.AddNoStoreHeaders(w)
}

// Clear expires the refresh cookie using the same attributes it was
// issued with.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   -1,
		HttpOnly: m.httpOnly,
		Secure:   m.secure,
		SameSite: m.sameSite,
	})
	m.AddNoStoreHeaders(w)
}

// Read returns the refresh token carried by the request cookie, or ""
// when the cookie is absent or blank.
func (m *Manager) Read(r *http.Request) string {
	c, err := r.Cookie(m.name)
	if err != nil {
		return ""
	}
	return c.Value
}

// AddNoStoreHeaders marks the response uncacheable.
func (m *Manager) AddNoStoreHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// Name returns the configured cookie name.
func (m *Manager) Name() string {
	return m.name
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}
