package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/site-web/internal/cms"
	"finitefield.org/site-web/internal/config"
	"finitefield.org/site-web/internal/contactform"
	"finitefield.org/site-web/internal/handlers"
	"finitefield.org/site-web/internal/i18n"
	"finitefield.org/site-web/internal/middleware"
	"finitefield.org/site-web/internal/observability"
	"finitefield.org/site-web/internal/templates"
	"finitefield.org/site-web/public"
)

const formPath = "/contact/messages"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "web:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Form)
	if err != nil {
		return err
	}
	defer closeStore()

	router, err := newRouter(cfg, logger, store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening", zap.String("addr", cfg.Server.Addr), zap.Bool("dev", cfg.DevMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.FormConfig) (contactform.Store, func(), error) {
	if cfg.DBPath == "" {
		return contactform.NewMemoryStore(), func() {}, nil
	}
	store, err := contactform.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// newRouter wires every route of the site.
func newRouter(cfg config.Config, logger *zap.Logger, store contactform.Store) (http.Handler, error) {
	bundle, err := i18n.LoadEmbedded(cfg.I18n.DefaultLocale, cfg.I18n.Locales)
	if err != nil {
		return nil, err
	}
	var renderer *templates.Renderer
	if cfg.DevMode {
		renderer, err = templates.NewDev(templates.SourceDir)
	} else {
		renderer, err = templates.New()
	}
	if err != nil {
		return nil, err
	}
	validator, err := contactform.NewValidator()
	if err != nil {
		return nil, err
	}
	assets, err := public.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	buildClient := cms.NewClient(cfg.CMS.BuildEndpoint, cms.WithTimeout(cfg.CMS.Timeout), cms.WithBuildNamespace())
	liveClient := cms.NewClient(cfg.CMS.LiveEndpoint, cms.WithTimeout(cfg.CMS.Timeout))
	contactHandlers := &handlers.Contact{
		Loader: cms.NewLoader(buildClient,
			cms.WithContentDir(cfg.CMS.ContentDir),
			cms.WithDefaultLocale(cfg.I18n.DefaultLocale),
			cms.WithCacheTTL(cfg.CMS.CacheTTL),
		),
		Live:        liveClient,
		Renderer:    renderer,
		Bundle:      bundle,
		Validator:   validator,
		Store:       store,
		BaseURL:     cfg.Site.BaseURL,
		RefreshPath: cfg.Site.RefreshPath,
		FormPath:    formPath,
		Analytics:   handlers.AnalyticsFromConfig(cfg.Analytics),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLoggerMiddleware(logger))
	r.Use(observability.TraceMiddleware)
	r.Use(observability.RequestLoggerMiddleware)
	r.Use(observability.RecoveryMiddleware(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/assets/*", http.StripPrefix("/assets", middleware.AssetsWithCache(assets)))

	r.Group(func(r chi.Router) {
		r.Use(middleware.HTMX)
		r.Use(middleware.Locale(bundle, cfg.Site.CookieSecure))
		r.Use(middleware.VaryLocale)
		r.Use(middleware.CSRF(cfg.Site.CookieSecure))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, handlers.ContactPath, http.StatusFound)
		})
		r.Get(handlers.ContactPath, contactHandlers.Page)
		r.Get(cfg.Site.RefreshPath, contactHandlers.Refresh)
		r.Post(formPath, contactHandlers.Submit)
		r.NotFound(contactHandlers.NotFound)
	})

	return r, nil
}
