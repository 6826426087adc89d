package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"

	"github.com/Shadownc/favicon-api/internal/favicon"
)

const (
	iconCacheControl = "public, max-age=86400"
	iconExtension    = ".png"
)

// Resolver is what the handler needs from the lookup pipeline.
type Resolver interface {
	Resolve(ctx context.Context, domain string) (favicon.Result, error)
}

// FaviconHandler serves the favicon endpoints on top of a Resolver.
type FaviconHandler struct {
	logger   *slog.Logger
	resolver Resolver
}

func NewFaviconHandler(logger *slog.Logger, resolver Resolver) *FaviconHandler {
	return &FaviconHandler{
		logger:   logger,
		resolver: resolver,
	}
}

// Status answers GET / with a liveness document.
func (h *FaviconHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "API is running"})
}

// Healthz answers GET /healthz.
func (h *FaviconHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Redirect answers GET /favicon?url=... with a 307 to the canonical
// /favicon/{host}.png path.
func (h *FaviconHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		http.Error(w, "URL parameter is required", http.StatusBadRequest)
		return
	}

	host, err := favicon.HostFromURL(raw)
	if err != nil {
		h.logger.Debug("Rejected url parameter",
			slog.String("url", raw),
			slog.String("error", err.Error()))
		http.Error(w, "Invalid URL parameter", http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, "/favicon/"+favicon.URLHost(host)+iconExtension, http.StatusTemporaryRedirect)
}

// Icon answers GET /favicon/{file}. The file is the domain with an optional
// .png suffix.
func (h *FaviconHandler) Icon(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	domain, err := favicon.NormalizeHost(strings.TrimSuffix(file, iconExtension))
	if err != nil {
		http.Error(w, "Invalid domain", http.StatusBadRequest)
		return
	}

	start := time.Now()
	res, err := h.resolver.Resolve(r.Context(), domain)
	switch {
	case errors.Is(err, favicon.ErrNotFound):
		h.logger.Info("Favicon not found",
			slog.String("domain", domain),
			slog.Duration("took", time.Since(start)))
		http.Error(w, "Favicon not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("Failed to resolve favicon",
			slog.String("domain", domain),
			slog.String("error", err.Error()))
		http.Error(w, "Error processing request", http.StatusInternalServerError)
		return
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = favicon.DefaultContentType
	}

	header := w.Header()
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.Itoa(len(res.Data)))
	header.Set("Cache-Control", iconCacheControl)
	header.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(res.Data); err != nil {
		h.logger.Debug("Client went away", slog.String("domain", domain), slog.String("error", err.Error()))
	}
}

// LogRequests logs every request with its outcome.
func (h *FaviconHandler) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		h.logger.Info("Handled request",
			slog.String("from", extractClientIP(r)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("proto", r.Proto),
			slog.String("user_agent", r.UserAgent()),
			slog.Int("status", m.Code),
			slog.Int64("bytes", m.Written),
			slog.Duration("took", m.Duration))
	})
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
