package cms

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	defaultContentDir = "content"
	defaultLocale     = "en"
	defaultCacheTTL   = 5 * time.Minute
)

// Loader resolves page payloads at build time, consulting the remote CMS when
// configured and local fixtures otherwise.
type Loader struct {
	client        *Client
	contentDir    string
	defaultLocale string
	ttl           time.Duration
	now           func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

type cacheEntry struct {
	payload Payload
	expires time.Time
}

// LoaderOption customises a Loader.
type LoaderOption func(*Loader)

// WithContentDir sets the directory holding local YAML fixtures.
func WithContentDir(dir string) LoaderOption {
	return func(l *Loader) {
		if dir = strings.TrimSpace(dir); dir != "" {
			l.contentDir = dir
		}
	}
}

// WithDefaultLocale sets the locale fixtures fall back to.
func WithDefaultLocale(locale string) LoaderOption {
	return func(l *Loader) {
		if locale = normalizeLocale(locale); locale != "" {
			l.defaultLocale = locale
		}
	}
}

// WithCacheTTL overrides how long loaded payloads are reused. Zero disables caching.
func WithCacheTTL(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d < 0 {
			d = 0
		}
		l.ttl = d
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLoader constructs a Loader. client may be nil to use fixtures only.
func NewLoader(client *Client, opts ...LoaderOption) *Loader {
	l := &Loader{
		client:        client,
		contentDir:    defaultContentDir,
		defaultLocale: defaultLocale,
		ttl:           defaultCacheTTL,
		now:           time.Now,
		items:         map[string]cacheEntry{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ContentDir returns the configured fixture directory.
func (l *Loader) ContentDir() string { return l.contentDir }

// Load returns the payload of content for locale. Remote errors other than
// ErrNotFound are returned as-is so the caller's build fails.
func (l *Loader) Load(ctx context.Context, content, locale string) (Payload, error) {
	content = sanitizeContent(content)
	if content == "" {
		return Payload{}, ErrNotFound
	}
	locale = normalizeLocale(locale)
	if locale == "" {
		locale = l.defaultLocale
	}

	key := content + "|" + locale
	if p, ok := l.cached(key); ok {
		return p, nil
	}

	p, err := l.fetch(ctx, content, locale)
	if err != nil {
		return Payload{}, err
	}
	l.store(key, p)
	return p.Clone(), nil
}

// Invalidate drops every cached payload.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.items = map[string]cacheEntry{}
	l.mu.Unlock()
}

func (l *Loader) fetch(ctx context.Context, content, locale string) (Payload, error) {
	if l.client.Endpoint() != "" {
		p, err := l.client.Page(ctx, content, locale)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Payload{}, err
		}
	}
	return fallbackPayload(l.contentDir, content, locale, l.defaultLocale)
}

func (l *Loader) cached(key string) (Payload, bool) {
	if l.ttl == 0 {
		return Payload{}, false
	}
	l.mu.RLock()
	entry, ok := l.items[key]
	l.mu.RUnlock()
	if !ok || l.now().After(entry.expires) {
		return Payload{}, false
	}
	return entry.payload.Clone(), true
}

func (l *Loader) store(key string, p Payload) {
	if l.ttl == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[key] = cacheEntry{payload: p.Clone(), expires: l.now().Add(l.ttl)}
}

func sanitizeContent(content string) string {
	content = strings.TrimSpace(strings.ToLower(content))
	if content == "" || strings.Contains(content, "..") {
		return ""
	}
	if strings.ContainsRune(content, os.PathSeparator) || strings.ContainsRune(content, '/') {
		return ""
	}
	return content
}

func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(strings.ToLower(locale))
	locale = strings.ReplaceAll(locale, "_", "-")
	if i := strings.IndexByte(locale, '-'); i != -1 {
		locale = locale[:i]
	}
	return locale
}
