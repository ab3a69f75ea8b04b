package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/site-web/internal/contact"
)

func TestBuildContactDataLinks(t *testing.T) {
	page := contact.Build(titled("Contact"), nil, "uk")
	data := BuildContactData(ContactInput{
		Page:       page,
		Locales:    []string{"en", "uk"},
		BaseURL:    "https://example.com",
		RefreshURL: "https://example.com/contact/refresh",
		PathFor:    StaticPath,
	})

	require.Equal(t, "https://example.com/uk/contact/", data.SEO.Canonical)
	require.Equal(t, "uk_UA", data.SEO.OG.Locale)
	require.Equal(t, []LocaleLink{
		{Lang: "en", Href: "/en/contact/"},
		{Lang: "uk", Href: "/uk/contact/", Current: true},
	}, data.Locales)
	require.Equal(t, "https://example.com/contact/refresh?digest="+page.Digest+"&hl=uk", data.Refresh.URL)
	require.Len(t, data.JSONLD, 2)
	require.Equal(t, "contact:x", data.T("contact:x"))
}

func TestBuildContactDataWithoutRefresh(t *testing.T) {
	data := BuildContactData(ContactInput{Page: contact.Build(titled("Contact"), nil, "en")})
	require.Nil(t, data.Refresh)
	require.Equal(t, "/contact?hl=en", data.SEO.Canonical)
	require.Len(t, data.Breadcrumbs, 2)
	require.Equal(t, "/", data.Breadcrumbs[0].Href)
	require.Equal(t, ContactPath, data.Breadcrumbs[1].Href)
	require.True(t, data.Breadcrumbs[1].Active)
}

func TestRefreshURLKeepsExistingQuery(t *testing.T) {
	require.Equal(t, "/r?x=1&digest=d&hl=en", RefreshURL("/r?x=1", "d", "en"))
}

func TestFormStateHasError(t *testing.T) {
	f := FormState{Errors: map[string]string{"email": "bad"}}
	require.True(t, f.HasError("email"))
	require.False(t, f.HasError("name"))
	require.False(t, FormState{}.HasError("name"))
}
