package sitegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"finitefield.org/site-web/internal/cms"
	"finitefield.org/site-web/internal/contact"
	"finitefield.org/site-web/internal/handlers"
	"finitefield.org/site-web/internal/i18n"
	"finitefield.org/site-web/internal/templates"
)

// Generator writes the statically generated contact page for each locale.
type Generator struct {
	Loader     handlers.PayloadLoader
	Renderer   *templates.Renderer
	Bundle     *i18n.Bundle
	Out        string
	Locales    []string
	RefreshURL string
	FormAction string
	BaseURL    string
	Analytics  handlers.Analytics
	// Assets, when set, is copied to <Out>/assets.
	Assets fs.FS
	Logger *zap.Logger
}

// Generate renders every locale and returns the written paths. The first
// failure aborts the build.
func (g *Generator) Generate(ctx context.Context) ([]string, error) {
	if g.Loader == nil || g.Renderer == nil || g.Bundle == nil {
		return nil, errors.New("sitegen: loader, renderer and bundle are required")
	}
	if g.Out == "" {
		return nil, errors.New("sitegen: output directory is required")
	}
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locales := g.Locales
	if len(locales) == 0 {
		locales = g.Bundle.Supported()
	}

	var written []string
	for _, lang := range locales {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, err := g.generateLocale(ctx, lang, locales)
		if err != nil {
			return written, err
		}
		logger.Info("page generated", zap.String("locale", lang), zap.String("path", path))
		written = append(written, path)
	}

	if g.Assets != nil {
		paths, err := copyAssets(g.Assets, filepath.Join(g.Out, "assets"))
		if err != nil {
			return written, err
		}
		written = append(written, paths...)
	}
	return written, nil
}

func (g *Generator) generateLocale(ctx context.Context, lang string, locales []string) (string, error) {
	payload, err := g.Loader.Load(ctx, cms.ContactPage, lang)
	if err != nil {
		return "", fmt.Errorf("sitegen: load %s: %w", lang, err)
	}
	t := contact.Translator(g.Bundle.Translator(lang))
	data := handlers.BuildContactData(handlers.ContactInput{
		Page:       contact.Build(payload, t, lang),
		Translate:  t,
		Locales:    locales,
		BaseURL:    g.BaseURL,
		RefreshURL: g.RefreshURL,
		Form:       handlers.FormState{Action: g.FormAction},
		Analytics:  g.Analytics,
		PathFor:    handlers.StaticPath,
	})

	var buf bytes.Buffer
	if err := g.Renderer.Page(&buf, data); err != nil {
		return "", fmt.Errorf("sitegen: render %s: %w", lang, err)
	}
	path := filepath.Join(g.Out, lang, "contact", "index.html")
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func copyAssets(src fs.FS, dst string) ([]string, error) {
	var written []string
	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := fs.ReadFile(src, p)
		if err != nil {
			return fmt.Errorf("sitegen: read asset %s: %w", p, err)
		}
		target := filepath.Join(dst, filepath.FromSlash(p))
		if err := writeFileAtomic(target, raw); err != nil {
			return err
		}
		written = append(written, target)
		return nil
	})
	return written, err
}

// writeFileAtomic writes data next to path and renames it into place so
// readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sitegen: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("sitegen: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sitegen: write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sitegen: chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("sitegen: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("sitegen: rename %s: %w", path, err)
	}
	return nil
}
