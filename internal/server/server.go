// Package server exposes the mockup pipeline over HTTP.
//
// Every endpoint answers with the pipeline reply envelope
// {success, message, data}:
//
//	POST /decode          {"filePath": "designs/shirt.svg"}
//	POST /merge           {"filePaths": [...], "fileName": "merged"}
//	POST /export          export request (see composite.Request)
//	POST /download-svg    layer model
//	GET  /templates       template summaries
//	GET  /templates/{id}  one template with its layer model
//	GET  /healthz         liveness
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/pipeline"
	"github.com/matzehuels/mockup/pkg/templates"
)

// Limits.
const (
	MaxBodyBytes    = 512 << 20
	RequestTimeout  = 10 * time.Minute
	ShutdownTimeout = 15 * time.Second
)

// Server routes HTTP requests to a pipeline runner.
type Server struct {
	runner    *pipeline.Runner
	templates templates.Store
	logger    *log.Logger
	router    chi.Router
}

// New returns a server. store may be nil, in which case the template
// endpoints report that no catalog is configured.
func New(runner *pipeline.Runner, store templates.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, templates: store, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeReply(w, pipeline.OK("ok", nil))
	})
	r.Post("/decode", s.handleDecode)
	r.Post("/merge", s.handleMerge)
	r.Post("/export", s.handleExport)
	r.Post("/download-svg", s.handleDownloadSVG)
	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Get("/{id}", s.handleGetTemplate)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Replies
// =============================================================================

func writeReply(w http.ResponseWriter, reply pipeline.Reply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusOf(reply))
	_ = json.NewEncoder(w).Encode(reply)
}

func statusOf(reply pipeline.Reply) int {
	if reply.Success {
		return http.StatusOK
	}
	switch errors.Code(reply.Code) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidStructure:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeSizeExceeded, errors.ErrCodeAssetUnavailable:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeDecoderFailed:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeReply(w, pipeline.Fail(errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")))
		return false
	}
	return true
}
