// Package api serves the functions the wizard and dashboard call:
// description generation, RSVP summaries and cover photo search.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arosenfeld2003/lockstep/internal/describe"
	"github.com/arosenfeld2003/lockstep/internal/photos"
	"github.com/arosenfeld2003/lockstep/internal/summary"
)

// Route paths.
const (
	PathHealth      = "/health"
	PathDescription = "/functions/v1/generate-description"
	PathSummary     = "/functions/v1/generate-summary"
	PathPhotos      = "/functions/v1/fetch-pexels"
)

// PhotoSearcher is satisfied by *photos.Client.
type PhotoSearcher interface {
	Search(ctx context.Context, req photos.Request) (photos.Response, error)
}

// Server holds the services behind each function.
type Server struct {
	Describe *describe.Service
	Summary  *summary.Service
	Photos   PhotoSearcher
	Log      zerolog.Logger

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

// Router returns the bare route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(PathHealth, s.health).Methods(http.MethodGet)
	r.HandleFunc(PathDescription, s.generateDescription).Methods(http.MethodPost)
	r.HandleFunc(PathSummary, s.generateSummary).Methods(http.MethodPost)
	r.HandleFunc(PathPhotos, s.fetchPhotos).Methods(http.MethodPost)
	r.Use(s.recovery, s.logging)
	return r
}

// Handler wraps the router with CORS and tracing.
func (s *Server) Handler() http.Handler {
	origins := s.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "apikey", "x-client-info"},
	})
	return otelhttp.NewHandler(c.Handler(s.Router()), "lockstep-functions")
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) generateDescription(w http.ResponseWriter, r *http.Request) {
	var req describe.Request
	if err := readJSON(w, r, &req); err != nil {
		_ = writeError(w, http.StatusBadRequest, err)
		return
	}
	svc := s.Describe
	if svc == nil {
		svc = &describe.Service{}
	}
	_ = writeJSON(w, http.StatusOK, svc.Describe(r.Context(), req))
}

func (s *Server) generateSummary(w http.ResponseWriter, r *http.Request) {
	var req summary.Request
	if err := readJSON(w, r, &req); err != nil {
		_ = writeError(w, http.StatusBadRequest, err)
		return
	}
	svc := s.Summary
	if svc == nil {
		svc = &summary.Service{}
	}
	_ = writeJSON(w, http.StatusOK, svc.Generate(r.Context(), req))
}

func (s *Server) fetchPhotos(w http.ResponseWriter, r *http.Request) {
	var req photos.Request
	if err := readJSON(w, r, &req); err != nil {
		_ = writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.Photos == nil {
		_ = writeError(w, http.StatusServiceUnavailable, photos.ErrNotConfigured)
		return
	}
	res, err := s.Photos.Search(r.Context(), req)
	if err != nil {
		s.Log.Warn().Err(err).Str("query", req.Query).Msg("photo search failed")
		_ = writeError(w, http.StatusBadGateway, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, res)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.Log.Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panicked")
				_ = writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
