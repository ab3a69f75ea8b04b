package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestResolveHonorsQValues(t *testing.T) {
	b, err := LoadEmbedded("en", []string{"en", "uk", "ru"})
	require.NoError(t, err)

	require.Equal(t, "uk", b.Resolve("ru;q=0.8, uk;q=0.9"))
	require.Equal(t, "ru", b.Resolve("ru-RU,ru;q=0.9,en;q=0.5"))
	require.Equal(t, "en", b.Resolve("ja, de;q=0.5"))
	require.Equal(t, "en", b.Resolve(""))
	require.Equal(t, "en", b.Resolve(";;;"))
}

func TestTranslateNamespacedKeys(t *testing.T) {
	b, err := LoadEmbedded("en", []string{"en", "uk", "ru"})
	require.NoError(t, err)

	require.Equal(t, "Locate us", b.T("en", "contact:locateUs"))
	require.Equal(t, "Як нас знайти", b.T("uk", "contact:locateUs"))
	require.Equal(t, "Send message", b.T("en", "contact:form.submit"))
	require.Equal(t, "Our address", b.T("en", "company:addressHeader"))
	require.NotEmpty(t, b.T("ru", "company:address"))
	// unknown locale uses the fallback, unknown key echoes the key
	require.Equal(t, "Locate us", b.T("de", "contact:locateUs"))
	require.Equal(t, "contact:missing", b.T("en", "contact:missing"))
}

func TestLoadFromFSFallsBackPerKey(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en/site.yaml": {Data: []byte("title: Site\nnav:\n  home: Home\n")},
		"locales/uk/site.yaml": {Data: []byte("title: Сайт\n")},
	}
	b, err := Load(fsys, "en", []string{"uk", "en", "ru"})
	require.NoError(t, err)

	require.Equal(t, "Сайт", b.T("uk", "site:title"))
	require.Equal(t, "Home", b.T("uk", "site:nav.home"))
	require.Equal(t, []string{"en", "ru", "uk"}, b.Supported())
	require.True(t, b.IsSupported("ru"))
	require.Equal(t, "uk", b.Normalize("uk-UA"))
	require.Equal(t, "en", b.Normalize("pl"))

	tr := b.Translator("uk")
	require.Equal(t, "Сайт", tr("site:title"))
}

func TestLoadRequiresFallbackCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/uk/site.yaml": {Data: []byte("title: Сайт\n")},
	}
	_, err := Load(fsys, "en", []string{"en", "uk"})
	require.Error(t, err)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en/site.yaml": {Data: []byte("title: [broken")},
	}
	_, err := Load(fsys, "en", []string{"en"})
	require.Error(t, err)
}
