package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"finitefield.org/site-web/internal/cms"
	"finitefield.org/site-web/internal/config"
	"finitefield.org/site-web/internal/contactform"
	"finitefield.org/site-web/internal/handlers"
	"finitefield.org/site-web/internal/i18n"
	"finitefield.org/site-web/internal/observability"
	"finitefield.org/site-web/internal/sitegen"
	"finitefield.org/site-web/internal/templates"
	"finitefield.org/site-web/public"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "sitegen:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "sitegen",
		Usage: "generate the static contact pages from CMS content",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "render dist/<locale>/contact/index.html for every locale",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "dist", Usage: "output directory"},
					&cli.StringFlag{Name: "locales", Usage: "comma separated locales (default: SITE_WEB_I18N_LOCALES)"},
					&cli.StringFlag{Name: "cms-endpoint", Usage: "CMS GraphQL endpoint (default: SITE_WEB_CMS_BUILD_ENDPOINT)"},
					&cli.StringFlag{Name: "content-dir", Usage: "local content fixtures (default: SITE_WEB_CMS_CONTENT_DIR)"},
					&cli.StringFlag{Name: "refresh-url", Usage: "live refresh endpoint (default: base URL + SITE_WEB_SITE_REFRESH_PATH)"},
					&cli.StringFlag{Name: "form-action", Usage: "contact form target (default: base URL + /contact/messages)"},
					&cli.StringFlag{Name: "base-url", Usage: "public site URL (default: SITE_WEB_SITE_BASE_URL)"},
					&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with SITE_WEB_* overrides"},
				},
				Action: buildAction,
			},
			{
				Name:  "messages",
				Usage: "list the most recent contact form submissions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Usage: "SQLite database (default: SITE_WEB_FORM_DB_PATH)"},
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of messages to list"},
					&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file with SITE_WEB_* overrides"},
				},
				Action: messagesAction,
			},
		},
	}
}

func buildAction(c *cli.Context) error {
	cfg, err := config.Load(config.WithEnvFile(c.String("env-file")))
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	endpoint := cfg.CMS.BuildEndpoint
	if c.IsSet("cms-endpoint") {
		endpoint = c.String("cms-endpoint")
	}
	contentDir := cfg.CMS.ContentDir
	if c.IsSet("content-dir") {
		contentDir = c.String("content-dir")
	}
	baseURL := cfg.Site.BaseURL
	if c.IsSet("base-url") {
		baseURL = strings.TrimRight(c.String("base-url"), "/")
	}
	refreshURL := baseURL + cfg.Site.RefreshPath
	if c.IsSet("refresh-url") {
		refreshURL = c.String("refresh-url")
	}
	formAction := baseURL + "/contact/messages"
	if c.IsSet("form-action") {
		formAction = c.String("form-action")
	}
	locales := cfg.I18n.Locales
	if c.IsSet("locales") {
		locales = splitLocales(c.String("locales"))
	}

	bundle, err := i18n.LoadEmbedded(cfg.I18n.DefaultLocale, cfg.I18n.Locales)
	if err != nil {
		return err
	}
	renderer, err := templates.New()
	if err != nil {
		return err
	}
	assets, err := public.StaticFS()
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}

	client := cms.NewClient(endpoint, cms.WithTimeout(cfg.CMS.Timeout), cms.WithBuildNamespace())
	gen := &sitegen.Generator{
		Loader: cms.NewLoader(client,
			cms.WithContentDir(contentDir),
			cms.WithDefaultLocale(cfg.I18n.DefaultLocale),
			cms.WithCacheTTL(0),
		),
		Renderer:   renderer,
		Bundle:     bundle,
		Out:        c.String("out"),
		Locales:    locales,
		RefreshURL: refreshURL,
		FormAction: formAction,
		BaseURL:    baseURL,
		Analytics:  handlers.AnalyticsFromConfig(cfg.Analytics),
		Assets:     assets,
		Logger:     logger,
	}

	written, err := gen.Generate(c.Context)
	if err != nil {
		logger.Error("build failed", zap.Error(err))
		return err
	}
	for _, p := range written {
		fmt.Fprintln(c.App.Writer, p)
	}
	return nil
}

func messagesAction(c *cli.Context) error {
	cfg, err := config.Load(config.WithEnvFile(c.String("env-file")))
	if err != nil {
		return err
	}
	path := cfg.Form.DBPath
	if c.IsSet("db") {
		path = c.String("db")
	}
	store, err := contactform.OpenSQLite(c.Context, path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%s <%s>\t%s\n",
			rec.CreatedAt.UTC().Format(time.RFC3339), rec.ID, rec.Locale, rec.Name, rec.Email, rec.Subject)
	}
	return nil
}

func splitLocales(raw string) []string {
	var out []string
	for _, l := range strings.Split(raw, ",") {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			out = append(out, l)
		}
	}
	return out
}
