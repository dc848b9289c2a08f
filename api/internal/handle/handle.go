package handle

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"study-assist/api/internal/metrics"
	"study-assist/api/internal/service"
	"study-assist/api/internal/storage"
)

const banner = "Study assistant API is running"

// Deps are the collaborators a Handle needs. Metrics and Ping are optional.
type Deps struct {
	Assistant   *service.Assistant
	Storage     *storage.Dir
	KeepUploads bool
	MaxUpload   int64
	CORSOrigins []string
	Log         *zap.Logger
	Metrics     *metrics.Metrics
	Ping        func(ctx context.Context) error
}

type Handle struct {
	as       *service.Assistant
	files    *storage.Dir
	keep     bool
	maxBytes int64
	origins  []string
	validate *validator.Validate
	log      *zap.Logger
	metrics  *metrics.Metrics
	ping     func(ctx context.Context) error
}

func New(d Deps) *Handle {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	maxBytes := d.MaxUpload
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &Handle{
		as:       d.Assistant,
		files:    d.Storage,
		keep:     d.KeepUploads,
		maxBytes: maxBytes,
		origins:  d.CORSOrigins,
		validate: validator.New(),
		log:      log,
		metrics:  d.Metrics,
		ping:     d.Ping,
	}
}

// Routes registers every endpoint on mux and returns the mux wrapped in the
// common middleware chain. Panics are recovered per route, inside the metrics
// and request log layers, so a crashed request is still counted and logged.
func (h *Handle) Routes(mux *http.ServeMux) http.Handler {
	h.route(mux, "/{$}", "home", h.Home)
	h.route(mux, "/ocr", "ocr", h.OCR)
	h.route(mux, "/detect", "detect", h.Detect)
	h.route(mux, "/transcribe", "transcribe", h.Transcribe)
	h.route(mux, "/chat", "chat", h.Chat)
	h.route(mux, "/history", "history", h.History)
	h.route(mux, "/healthz", "healthz", h.Healthz)
	if h.metrics != nil {
		mux.Handle("/metrics", h.metrics.Handler())
	}

	var root http.Handler = mux
	root = h.cors(root)
	root = h.requestLog(root)
	return root
}

func (h *Handle) route(mux *http.ServeMux, pattern, name string, fn http.HandlerFunc) {
	hh := h.recoverer(fn)
	if h.metrics != nil {
		hh = h.metrics.Middleware(name, hh)
	}
	mux.Handle(pattern, hh)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// allow writes a 405 and returns false when r.Method is not method.
func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, methodNotAllowed(method))
	return false
}
