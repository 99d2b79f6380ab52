package server

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/dDxCg/lib-demo/internal/app"
	"github.com/dDxCg/lib-demo/internal/ratelimit"
	"github.com/dDxCg/lib-demo/internal/util"
	"github.com/dDxCg/lib-demo/pkg/domain"
	"github.com/dDxCg/lib-demo/pkg/store"
)

//go:embed ui
var uiFS embed.FS

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// Limiter is optional; requests pass unchecked when nil.
	Limiter *ratelimit.FixedWindowLimiter
	// TrustProxyHeaders controls whether forwarded headers are used for
	// rate-limit keying.
	TrustProxyHeaders bool
}

// Server exposes the catalog HTTP API and the embedded web UI.
type Server struct {
	app        *app.App
	limiter    *ratelimit.FixedWindowLimiter
	trustProxy bool
	mux        *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	s := &Server{
		app:        cfg.App,
		limiter:    cfg.Limiter,
		trustProxy: cfg.TrustProxyHeaders,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.withRateLimit(s.mux)))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/books", s.handleBooks)

	ui, err := fs.Sub(uiFS, "ui")
	if err == nil {
		s.mux.Handle("/", http.FileServerFS(ui))
	}
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(util.ClientIP(r, s.trustProxy)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleSearchBooks(w, r)
	case http.MethodPost:
		s.handleCreateBook(w, r)
	case http.MethodPut:
		s.handleUpdateBook(w, r)
	case http.MethodDelete:
		s.handleDeleteBook(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.BookFilter{
		ID:      strings.TrimSpace(query.Get("id")),
		BookID:  strings.TrimSpace(query.Get("bookId")),
		Title:   strings.TrimSpace(query.Get("title")),
		Authors: nonEmpty(query["author"]),
		Genres:  nonEmpty(query["genre"]),
	}
	books, err := s.app.SearchBooks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search books")
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, Data: books})
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeBookInput(w, r)
	if !ok {
		return
	}
	book, err := s.app.CreateBook(r.Context(), input)
	if err != nil {
		if app.IsValidationError(err) {
			// Contract quirk kept from the original API: validation
			// failures answer 200 and the caller inspects success.
			writeJSON(w, http.StatusOK, validationResponse{Success: false, Err: err.Error()})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create book")
		return
	}
	writeJSON(w, http.StatusOK, bookResponse{Success: true, Data: book})
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	input, ok := decodeBookInput(w, r)
	if !ok {
		return
	}
	book, err := s.app.UpdateBook(r.Context(), id, input)
	if err != nil {
		switch {
		case app.IsValidationError(err):
			writeJSON(w, http.StatusOK, validationResponse{Success: false, Err: err.Error()})
		case errors.Is(err, store.ErrBookNotFound):
			writeError(w, http.StatusNotFound, "book not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update book")
		}
		return
	}
	writeJSON(w, http.StatusOK, bookResponse{Success: true, Data: book})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	count, err := s.app.DeleteBook(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, DeletedCount: count})
}

func decodeBookInput(w http.ResponseWriter, r *http.Request) (domain.BookInput, bool) {
	var input domain.BookInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return domain.BookInput{}, false
	}
	return input, true
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

type searchResponse struct {
	Success bool          `json:"success"`
	Data    []domain.Book `json:"data"`
}

type bookResponse struct {
	Success bool        `json:"success"`
	Data    domain.Book `json:"data"`
}

// validationResponse reports an input validation failure; note the
// original API exposes the message under "err", not "error".
type validationResponse struct {
	Success bool   `json:"success"`
	Err     string `json:"err"`
}

type deleteResponse struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deletedCount"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Success:   false,
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "book not found":
		return "BOOK_NOT_FOUND"
	case message == "id is required":
		return "BOOK_ID_REQUIRED"
	case message == "invalid json body":
		return "BOOK_INVALID_REQUEST"
	case message == "rate limit exceeded":
		return "RATE_LIMITED"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	}
	switch status {
	case http.StatusBadRequest:
		return "BOOK_INVALID_REQUEST"
	case http.StatusNotFound:
		return "BOOK_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
