package sitegen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"finitefield.org/site-web/internal/cms"
	"finitefield.org/site-web/internal/i18n"
	"finitefield.org/site-web/internal/templates"
	"finitefield.org/site-web/internal/testutil"
)

func writeFixture(t *testing.T, dir, locale, title string) {
	t.Helper()
	path := filepath.Join(dir, cms.ContactPage, locale+".yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	body := "page:\n  - name: title\n    type: string\n    value: " + title + "\n  - name: seoTitle\n    type: string\n    value: " + title + " | Yunist\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func newGenerator(t *testing.T, contentDir string) *Generator {
	t.Helper()
	bundle, err := i18n.LoadEmbedded("en", []string{"en", "uk", "ru"})
	require.NoError(t, err)
	renderer, err := templates.New()
	require.NoError(t, err)
	return &Generator{
		Loader:     cms.NewLoader(nil, cms.WithContentDir(contentDir)),
		Renderer:   renderer,
		Bundle:     bundle,
		Out:        t.TempDir(),
		Locales:    []string{"en", "uk"},
		RefreshURL: "/contact/refresh",
		FormAction: "/contact/messages",
		BaseURL:    "https://example.com",
	}
}

func TestGenerateWritesEveryLocale(t *testing.T) {
	content := t.TempDir()
	writeFixture(t, content, "en", "Contact")
	writeFixture(t, content, "uk", "Контакти")

	g := newGenerator(t, content)
	g.Assets = fstest.MapFS{"site.css": {Data: []byte("body{}")}}
	paths, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(g.Out, "en", "contact", "index.html"),
		filepath.Join(g.Out, "uk", "contact", "index.html"),
		filepath.Join(g.Out, "assets", "site.css"),
	}, paths)

	raw, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	doc := testutil.ParseHTML(t, raw)
	require.Equal(t, "uk", doc.Find("html").AttrOr("lang", ""))
	require.Equal(t, "Контакти", strings.TrimSpace(doc.Find("[data-hero] h1").Text()))
	require.Equal(t, "Контакти | Yunist", doc.Find("title").Text())
	require.Equal(t, "https://example.com/uk/contact/", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	require.True(t, strings.HasPrefix(doc.Find("[data-hero]").AttrOr("hx-get", ""), "/contact/refresh?digest="))

	// the token comes from the live server's cookie through site.js
	form := doc.Find("#contact-form form")
	require.Equal(t, "", form.Find(`input[name="csrf_token"]`).AttrOr("value", "x"))
	require.Contains(t, form.Find("noscript").Text(), "JavaScript")

	entries, err := os.ReadDir(filepath.Join(g.Out, "uk", "contact"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestGenerateFallsBackToDefaultLocale(t *testing.T) {
	content := t.TempDir()
	writeFixture(t, content, "en", "Contact")

	g := newGenerator(t, content)
	paths, err := g.Generate(context.Background())
	require.NoError(t, err)
	raw, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	doc := testutil.ParseHTML(t, raw)
	require.Equal(t, "Contact", strings.TrimSpace(doc.Find("[data-hero] h1").Text()))
	require.Equal(t, "Як нас знайти", doc.Find("#locate-us").Text())
}

func TestGenerateAbortsOnLoadError(t *testing.T) {
	g := newGenerator(t, t.TempDir())
	paths, err := g.Generate(context.Background())
	require.ErrorIs(t, err, cms.ErrNotFound)
	require.Empty(t, paths)
}

func TestGenerateRequiresDependencies(t *testing.T) {
	_, err := (&Generator{}).Generate(context.Background())
	require.Error(t, err)
}
