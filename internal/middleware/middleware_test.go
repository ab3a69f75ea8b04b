package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"finitefield.org/site-web/internal/i18n"
)

func newBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	b, err := i18n.LoadEmbedded("en", []string{"en", "uk", "ru"})
	require.NoError(t, err)
	return b
}

func langHandler(seen *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = Lang(r.Context(), "fallback")
	})
}

func TestLocaleResolutionOrder(t *testing.T) {
	var seen string
	h := Locale(newBundle(t), false)(langHandler(&seen))

	// query wins and is persisted
	req := httptest.NewRequest(http.MethodGet, "/contact?hl=uk", nil)
	req.Header.Set("Accept-Language", "ru")
	req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: "en"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "uk", seen)
	require.Equal(t, "uk", rec.Header().Get("Content-Language"))
	require.Contains(t, rec.Header().Get("Set-Cookie"), "hl=uk")

	// cookie beats Accept-Language
	req = httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.Header.Set("Accept-Language", "ru")
	req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: "en"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "en", seen)

	// Accept-Language with q-values
	req = httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.Header.Set("Accept-Language", "en;q=0.2, ru;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "ru", seen)

	// unsupported values are ignored
	req = httptest.NewRequest(http.MethodGet, "/contact?hl=de", nil)
	req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: "fr"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "en", seen)
	require.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestLangWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, "en", Lang(req.Context(), "en"))
}

func TestVaryLocale(t *testing.T) {
	rec := httptest.NewRecorder()
	VaryLocale(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "Accept-Language", rec.Header().Get("Vary"))
}

func TestHTMXFlag(t *testing.T) {
	var is bool
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { is = IsHTMX(r.Context()) }))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, is)
}

func TestCSRFIssuesAndVerifiesToken(t *testing.T) {
	var token string
	h := CSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = CSRFToken(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contact", nil))
	require.Len(t, token, 32)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, token, cookies[0].Value)

	// header echo
	req := httptest.NewRequest(http.MethodPost, "/contact/messages", nil)
	req.AddCookie(cookies[0])
	req.Header.Set("X-CSRF-Token", token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// form field echo
	form := url.Values{"csrf_token": {token}}
	req = httptest.NewRequest(http.MethodPost, "/contact/messages", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// mismatch
	req = httptest.NewRequest(http.MethodPost, "/contact/messages", nil)
	req.AddCookie(cookies[0])
	req.Header.Set("X-CSRF-Token", strings.Repeat("0", 32))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCSRFRejectsWithoutCookie(t *testing.T) {
	h := CSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/contact/messages", nil)
	req.Header.Set("X-CSRF-Token", strings.Repeat("a", 32))
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	HTMX(h).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.JSONEq(t, `{"error":"invalid CSRF token"}`, rec.Body.String())
}

func TestAssetsWithCache(t *testing.T) {
	fsys := fstest.MapFS{"site.css": {Data: []byte("body{}")}}
	h := http.StripPrefix("/assets", AssetsWithCache(fsys))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/site.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	require.Contains(t, rec.Header().Get("Cache-Control"), "max-age")

	req := httptest.NewRequest(http.MethodGet, "/assets/site.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}
