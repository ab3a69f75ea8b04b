package seo

import "strings"

// OpenGraph carries og:* values.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	Locale      string
	SiteName    string
}

// Twitter carries twitter:* values.
type Twitter struct {
	Card  string
	Image string
}

// Alternate is a hreflang link to the same page in another locale.
type Alternate struct {
	Lang string
	Href string
}

// Meta is the document metadata rendered into <head>.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Alternates  []Alternate
	OG          OpenGraph
	Twitter     Twitter
}

// ogLocales maps site locales to OpenGraph locale identifiers.
var ogLocales = map[string]string{
	"en": "en_US",
	"uk": "uk_UA",
	"ru": "ru_RU",
}

// OGLocale returns the OpenGraph locale for lang.
func OGLocale(lang string) string {
	if v, ok := ogLocales[strings.ToLower(lang)]; ok {
		return v
	}
	return ""
}

// AbsURL joins base and p. An empty base leaves p relative.
func AbsURL(base, p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || strings.HasPrefix(p, "//") {
		return p
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}

// Alternates builds hreflang links for each locale using pathFor to derive
// the locale specific path.
func Alternates(base string, locales []string, pathFor func(lang string) string) []Alternate {
	out := make([]Alternate, 0, len(locales))
	for _, l := range locales {
		out = append(out, Alternate{Lang: l, Href: AbsURL(base, pathFor(l))})
	}
	return out
}
