// Package httpapi serves the browser-facing verification link and the
// liveness and readiness probes.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskmanager/internal/common"
	"github.com/dmitrijs2005/taskmanager/internal/logging"
	"github.com/dmitrijs2005/taskmanager/internal/server/mailer"
	"github.com/dmitrijs2005/taskmanager/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type verifier interface {
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
}

// Check reports whether a dependency is ready to serve.
type Check func(ctx context.Context) error

// NewRouter mounts the verification endpoint at mailer.VerificationPath.
func NewRouter(v verifier, l logging.Logger, checks ...Check) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogFields)
	r.Use(middleware.Recoverer)

	r.Get(mailer.VerificationPath, verifyHandler(v, l))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, "ALIVE")
	})
	r.Get("/readyz", readyHandler(l, checks))

	return r
}

// requestLogFields tags log records of the request with its id.
func requestLogFields(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWith(r.Context(), "request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func verifyHandler(v verifier, l logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeText(w, http.StatusBadRequest, "missing token")
			return
		}

		_, err := v.VerifyEmail(r.Context(), token)
		switch {
		case err == nil:
			writeText(w, http.StatusOK, "Email verified. You can now log in.")
		case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorInvalidInput):
			writeText(w, http.StatusBadRequest, "invalid or expired verification link")
		default:
			l.Error(r.Context(), "email verification failed", "error", err)
			writeText(w, http.StatusInternalServerError, common.ErrorInternal.Error())
		}
	}
}

func readyHandler(l logging.Logger, checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				l.Error(r.Context(), "readiness check failed", "error", err)
				writeText(w, http.StatusServiceUnavailable, "NOT_READY")
				return
			}
		}
		writeText(w, http.StatusOK, "READY")
	}
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
