package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-polyglot/internal/logging"
)

// languageGuard answers 404 for {lang} values outside the allow-list.
func (a *API) languageGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "lang")))
		if _, ok := a.allowed[lang]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		ctx := logging.ContextWithFields(r.Context(), map[string]any{"lang": lang})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(logging.ContextWithFields(r.Context(), map[string]any{
			"request_id": middleware.GetReqID(r.Context()),
		}))

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		}
		logger := a.logger.WithContext(r.Context())
		if status >= http.StatusInternalServerError {
			logger.Error("http.request", fields...)
			return
		}
		logger.Info("http.request", fields...)
	})
}
