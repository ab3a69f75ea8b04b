package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*/*.yaml
var embeddedLocales embed.FS

// Bundle holds namespaced translations per locale. Keys take the form
// "namespace:key", e.g. "contact:locateUs".
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
}

// LoadEmbedded loads the catalogs shipped with the binary.
func LoadEmbedded(fallback string, supported []string) (*Bundle, error) {
	return Load(embeddedLocales, fallback, supported)
}

// Load reads locales/<lang>/<namespace>.yaml from fsys for each supported
// locale. Only the fallback locale is required to exist.
func Load(fsys fs.FS, fallback string, supported []string) (*Bundle, error) {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if len(supported) == 0 {
		supported = []string{"en", "uk", "ru"}
	}
	if fallback == "" {
		fallback = supported[0]
	}

	b := &Bundle{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}
	// the fallback goes first so the matcher defaults to it
	ordered := []string{fallback}
	for _, l := range supported {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || l == fallback || containsString(ordered, l) {
			continue
		}
		ordered = append(ordered, l)
	}

	tags := make([]language.Tag, 0, len(ordered))
	for _, l := range ordered {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("i18n: parse locale %q: %w", l, err)
		}
		tags = append(tags, tag)

		messages, err := loadLocale(fsys, l)
		if err != nil {
			return nil, err
		}
		if len(messages) == 0 {
			if l == fallback {
				return nil, fmt.Errorf("i18n: fallback locale %s not loaded", l)
			}
			continue
		}
		b.dict[l] = messages
	}
	b.supported = ordered
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

func loadLocale(fsys fs.FS, lang string) (map[string]string, error) {
	files, err := fs.Glob(fsys, path.Join("locales", lang, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("i18n: glob %s: %w", lang, err)
	}
	sort.Strings(files)
	messages := map[string]string{}
	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", file, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("i18n: unmarshal %s: %w", file, err)
		}
		ns := strings.TrimSuffix(path.Base(file), ".yaml")
		flatten(ns+":", tree, messages)
	}
	return messages, nil
}

func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		switch val := v.(type) {
		case map[string]any:
			flatten(prefix+k+".", val, out)
		case nil:
			out[prefix+k] = ""
		default:
			out[prefix+k] = fmt.Sprint(val)
		}
	}
}

// Supported returns the supported locales in sorted order.
func (b *Bundle) Supported() []string {
	out := make([]string, len(b.supported))
	copy(out, b.supported)
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang is one of the configured locales.
func (b *Bundle) IsSupported(lang string) bool {
	return containsString(b.supported, strings.ToLower(strings.TrimSpace(lang)))
}

// Normalize maps lang to a supported locale, or the fallback.
func (b *Bundle) Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if b.IsSupported(lang) {
		return lang
	}
	if base, _, ok := strings.Cut(lang, "-"); ok && b.IsSupported(base) {
		return base
	}
	return b.fallback
}

// T returns the translation for key in lang, falling back to the default
// locale and finally to the key itself.
func (b *Bundle) T(lang, key string) string {
	if lang != "" {
		if m, ok := b.dict[lang]; ok {
			if v, ok := m[key]; ok {
				return v
			}
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Translator returns a function bound to lang, suitable for templates.
func (b *Bundle) Translator(lang string) func(key string) string {
	return func(key string) string { return b.T(lang, key) }
}

// Resolve chooses the best supported locale from an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	acceptLang = strings.TrimSpace(acceptLang)
	if acceptLang == "" {
		return b.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(b.supported) {
		return b.fallback
	}
	return b.supported[idx]
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
