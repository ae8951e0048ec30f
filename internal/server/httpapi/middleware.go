package httpapi

import (
	"context"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/mygardenbook/gardenbook/internal/common"
	"github.com/mygardenbook/gardenbook/internal/server/auth"
)

// requestLogger tags each request with an id, echoes it in the response and
// logs one line when the handler returns.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(common.RequestIDHeaderName)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, requestID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Info(r.Context(), "request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"remote", r.RemoteAddr,
			"duration", time.Since(start).String(),
		)
	})
}

func (s *Server) panicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error(r.Context(), "panic in handler", "panic", rec, "stack", string(debug.Stack()))
				sendError(w, common.ErrDependency)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleCORS allows the configured origins, the frontend itself and any
// origin matching the preview pattern. Requests without Origin pass through.
func (s *Server) handleCORS() func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, o := range s.cfg.AllowedOrigins {
		allowed[o] = true
	}
	if s.cfg.FrontendURL != "" {
		allowed[s.cfg.FrontendURL] = true
	}
	var preview *regexp.Regexp
	if s.cfg.PreviewOriginPattern != "" {
		re, err := regexp.Compile(s.cfg.PreviewOriginPattern)
		if err != nil {
			s.logger.Warn(context.Background(), "invalid preview origin pattern ignored", "pattern", s.cfg.PreviewOriginPattern, "error", err)
		} else {
			preview = re
		}
	}

	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return allowed[origin] || (preview != nil && preview.MatchString(origin))
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", common.RequestIDHeaderName},
		ExposedHeaders:   []string{common.RequestIDHeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// requireAdmin rejects the request unless the gate resolves an admin.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminID, err := s.deps.Gate.Resolve(r.Context(), r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			s.logger.Info(r.Context(), "admin gate rejected request", "path", r.URL.Path, "error", err)
			sendError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithAdminID(r.Context(), adminID)))
	})
}

func adminID(r *http.Request) string {
	id, _ := auth.AdminIDFromContext(r.Context())
	return id
}
