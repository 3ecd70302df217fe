package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/observe"
	"github.com/jonwraymond/tiercache/route"
)

// MaxBodyBytes bounds PUT bodies.
const MaxBodyBytes = 1 << 20

// RouteResponse is the body of GET /route.
type RouteResponse struct {
	Key     string `json:"key"`
	Buckets int    `json:"buckets"`
	Bucket  int    `json:"bucket"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) getCache(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, ok := cache.Get[json.RawMessage](r.Context(), s.cache, cache.ScopeFromContext(r.Context()), key)
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

func (s *Server) putCache(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var ttl time.Duration
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid ttl")
			return
		}
		ttl = d
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "body must be JSON")
		return
	}

	err = cache.Set(r.Context(), s.cache, cache.ScopeFromContext(r.Context()), key, json.RawMessage(body), ttl)
	if err != nil {
		s.writeCacheError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteCache(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.cache.Delete(r.Context(), cache.ScopeFromContext(r.Context()), key); err != nil {
		s.writeCacheError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("key") {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	key := q.Get("key")

	var resp RouteResponse
	switch {
	case q.Has("buckets"):
		n, err := strconv.Atoi(q.Get("buckets"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "buckets must be an integer")
			return
		}
		b, err := route.Route(key, n)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp = RouteResponse{Key: key, Buckets: n, Bucket: b}
	case s.router != nil:
		resp = RouteResponse{Key: key, Buckets: s.router.Buckets(), Bucket: s.router.Bucket(key)}
	default:
		writeError(w, http.StatusBadRequest, "buckets is required")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeCacheError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cache.ErrInvalidKey), errors.Is(err, cache.ErrKeyTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cache.ErrRemoteUnavailable), errors.Is(err, cache.ErrRemoteTimeout):
		s.logger.Warn(r.Context(), "remote tier write failed",
			observe.Field{Key: "path", Value: r.URL.Path},
			observe.Field{Key: "error", Value: err.Error()},
		)
		writeError(w, http.StatusBadGateway, "remote cache unavailable")
	default:
		s.logger.Error(r.Context(), "cache operation failed",
			observe.Field{Key: "path", Value: r.URL.Path},
			observe.Field{Key: "error", Value: err.Error()},
		)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
