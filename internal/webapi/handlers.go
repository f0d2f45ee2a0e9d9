// Package webapi serves the JSON endpoints behind the admin page: the
// admin-ajax action that runs checks, and a read-only view of recent runs.
package webapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/reporting"
)

// Version is set at build time or defaults to dev.
var Version = "dev"

// maxFormMemory bounds multipart parsing of admin-ajax posts.
const maxFormMemory = 1 << 20

// Config wires the handlers to the rest of the program.
type Config struct {
	Store  RunStore
	Nonces *Nonces
	// RunnerOptions are applied to every runner the AJAX action creates.
	RunnerOptions []checker.RunnerOption
	Logger        *slog.Logger
}

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store    RunStore
	nonces   *Nonces
	opts     []checker.RunnerOption
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandlers creates Handlers, filling in an in-memory store and a
// random-keyed nonce source when cfg leaves them unset.
func NewHandlers(cfg Config) *Handlers {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore(0)
	}
	if cfg.Nonces == nil {
		cfg.Nonces = NewNonces("")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})

	return &Handlers{
		store:    cfg.Store,
		nonces:   cfg.Nonces,
		opts:     cfg.RunnerOptions,
		validate: v,
		logger:   cfg.Logger,
	}
}

// Nonces returns the nonce source the AJAX action verifies against.
func (h *Handlers) Nonces() *Nonces { return h.nonces }

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleRuns returns a list of all runs, with optional sort/order query params.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.URL.Query().Get("sort"), r.URL.Query().Get("order"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleRunDetail returns the full report of one run.
func (h *Handlers) HandleRunDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "run id is required")
		return
	}

	report, err := h.store.GetRun(id)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleRunChecks runs checks for the posted plugin and answers with the
// admin-ajax envelope.
func (h *Handlers) HandleRunChecks(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeAJAXError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}
	src := checker.FormSource(r.Form)

	req, err := h.decodeRequest(r)
	if err != nil {
		writeAJAXError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.nonces.Verify(NonceAction, req.Nonce) {
		writeAJAXError(w, http.StatusForbidden, "Invalid nonce.")
		return
	}

	transport := checker.AJAXTransport{}
	early := checker.InitializeRunner(src, []checker.Transport{transport}, h.opts...)
	runner := checker.RunnerFor(early, transport, src, h.opts...)
	if err := runner.SetCheckSlugs(checker.SplitSlugs(req.Checks)); err != nil {
		writeAJAXError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := runner.SetPluginSlug(strings.TrimSpace(req.Plugin)); err != nil {
		writeAJAXError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	result, err := runner.Run(r.Context())
	if result == nil {
		h.logger.Error("run failed", "run_id", runner.RunID(), "error", err)
		writeAJAXError(w, runErrorStatus(err), err.Error())
		return
	}

	report := reporting.NewReport(result, runner.SelectedSlugs(), time.Since(start))
	report.RunID = runner.RunID()
	h.store.Add(report)

	data := AJAXData{
		Message:  "Checks run successfully.",
		RunID:    runner.RunID(),
		Errors:   reporting.Nested(result.Errors()),
		Warnings: reporting.Nested(result.Warnings()),
	}
	status := http.StatusOK
	if err != nil {
		h.logger.Error("run finished with errors", "run_id", runner.RunID(), "error", err)
		data.Message = err.Error()
		status = runErrorStatus(err)
	}
	writeJSON(w, status, AJAXResponse{Success: err == nil, Data: data})
}

func (h *Handlers) decodeRequest(r *http.Request) (runChecksRequest, error) {
	fields := make(map[string]any, len(r.Form))
	for k, v := range r.Form {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}

	var req runChecksRequest
	if err := mapstructure.Decode(fields, &req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return req, validationMessage(err)
	}
	return req, nil
}

// validationMessage turns validator output into one readable error.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("missing %s", fe.Field()))
		case "eq":
			parts = append(parts, fmt.Sprintf("unsupported %s %q", fe.Field(), fe.Value()))
		default:
			parts = append(parts, fmt.Sprintf("invalid %s", fe.Field()))
		}
	}
	return errors.New("invalid request: " + strings.Join(parts, ", "))
}

func runErrorStatus(err error) int {
	var verr *checker.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/runs", h.HandleRuns)
	mux.HandleFunc("GET /api/runs/{id}", h.HandleRunDetail)
	mux.HandleFunc("POST /wp-admin/admin-ajax.php", h.HandleRunChecks)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}

func writeAJAXError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, AJAXResponse{Data: AJAXData{Message: msg}})
}
