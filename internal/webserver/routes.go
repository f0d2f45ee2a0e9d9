package webserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/plugin"
	"github.com/wpcheck/plugin-check/internal/webapi"
)

const (
	adminPagePath = "/wp-admin/tools.php?page=plugin-check"
	adminPageSlug = "plugin-check"
	ajaxPath      = "/wp-admin/admin-ajax.php"
)

//go:embed assets
var assets embed.FS

var adminPage = template.Must(template.ParseFS(assets, "assets/admin-page.html"))

// adminSettings is exposed to the page script as PLUGIN_CHECK.
type adminSettings struct {
	AjaxURL string `json:"ajaxUrl"`
	Nonce   string `json:"nonce"`
}

type adminPageData struct {
	Plugins  []plugin.Info
	Selected string
	Settings adminSettings
}

// registerRoutes sets up the admin page, API and asset routes on mux.
func registerRoutes(mux *http.ServeMux, cfg Config) error {
	opts := append([]checker.RunnerOption{checker.WithLocator(cfg.Locator), checker.WithLogger(cfg.Logger)}, cfg.RunnerOptions...)
	if cfg.Metrics != nil {
		opts = append(opts, checker.WithObserver(cfg.Metrics))
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	api := webapi.NewHandlers(webapi.Config{
		Store:         cfg.Store,
		Nonces:        webapi.NewNonces(cfg.NonceSecret),
		RunnerOptions: opts,
		Logger:        cfg.Logger,
	})
	webapi.RegisterRoutes(mux, api)

	static, err := fs.Sub(assets, "assets")
	if err != nil {
		return fmt.Errorf("failed to create sub filesystem for assets: %w", err)
	}
	mux.Handle("GET /assets/plugin-check-admin.js", http.StripPrefix("/assets/", http.FileServer(http.FS(static))))

	mux.Handle("GET /wp-admin/tools.php", adminPageHandler(cfg.Locator, api.Nonces()))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, adminPagePath, http.StatusFound)
	})
	return nil
}

// adminPageHandler renders the plugin picker. The plugin query parameter
// preselects a plugin by basename or slug.
func adminPageHandler(locator *plugin.Locator, nonces *webapi.Nonces) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != adminPageSlug {
			http.NotFound(w, r)
			return
		}

		plugins, err := locator.Available()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data := adminPageData{
			Plugins:  plugins,
			Selected: selectedPlugin(plugins, r.URL.Query().Get("plugin")),
			Settings: adminSettings{AjaxURL: ajaxPath, Nonce: nonces.Create(webapi.NonceAction)},
		}

		var buf bytes.Buffer
		if err := adminPage.Execute(&buf, data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		buf.WriteTo(w) //nolint:errcheck
	})
}

func selectedPlugin(plugins []plugin.Info, input string) string {
	input = strings.Trim(strings.TrimSpace(input), "/")
	if input == "" {
		return ""
	}
	for _, p := range plugins {
		slug, _, _ := strings.Cut(p.Basename, "/")
		if p.Basename == input || strings.TrimSuffix(slug, ".php") == input {
			return p.Basename
		}
	}
	return ""
}
