package handlers

import (
	"net/http"
	"time"

	"github.com/sujal/maths-tabel-server/internal/config"
)

// authCookie builds the session cookie. Cross-site deployments need
// SameSite=None, which browsers only accept over HTTPS, so both flip
// together with the environment.
func authCookie(cfg *config.Config, value string, maxAge time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if cfg.IsProduction() {
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: sameSite,
	}
}

func clearAuthCookie(cfg *config.Config) *http.Cookie {
	cookie := authCookie(cfg, "", 0)
	cookie.MaxAge = -1
	return cookie
}
