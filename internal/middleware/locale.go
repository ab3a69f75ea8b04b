package middleware

import (
	"net/http"
	"time"

	"finitefield.org/site-web/internal/i18n"
)

// LocaleCookie persists an explicit language choice.
const LocaleCookie = "hl"

// Locale resolves the request language from ?hl=, the hl cookie, then
// Accept-Language. An explicit ?hl= is persisted to the cookie.
func Locale(bundle *i18n.Bundle, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var lang string
			if q := r.URL.Query().Get("hl"); q != "" && bundle.IsSupported(q) {
				lang = bundle.Normalize(q)
				http.SetCookie(w, &http.Cookie{
					Name:     LocaleCookie,
					Value:    lang,
					Path:     "/",
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(365 * 24 * time.Hour),
				})
			} else if c, err := r.Cookie(LocaleCookie); err == nil && bundle.IsSupported(c.Value) {
				lang = bundle.Normalize(c.Value)
			} else {
				lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), lang)))
		})
	}
}

// VaryLocale sets Vary header for Accept-Language on dynamic responses
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r)
	})
}
