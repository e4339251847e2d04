package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/studydash/internal/authentication"
	"github.com/studydash/internal/devices"
	"github.com/studydash/internal/profiles"
)

type Middleware func(http.HandlerFunc) http.HandlerFunc

func WithMiddlewares(middlewares ...Middleware) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		for i := len(middlewares) - 1; i > -1; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

func WithAccessLogs(logger *slog.Logger) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"size", rec.size,
				"duration", time.Since(start),
			)
		}
	}
}

// WithAuthentication puts the profile of the device cookie into the request
// context and refreshes the cookie. Requests without a known profile are
// rejected.
func WithAuthentication(
	logger *slog.Logger,
	authenticationService *authentication.Service,
) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			dvc, ok := devices.FromCookies(r.Cookies())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx, err := authenticationService.AuthenticateContext(r.Context(), dvc.ProfileID)
			if errors.Is(err, profiles.ErrNotFound) {
				for _, cookie := range devices.ExpiredCookies(r.TLS != nil) {
					w.Header().Add("Set-Cookie", cookie.String())
				}
				w.WriteHeader(http.StatusUnauthorized)
				return
			} else if err != nil {
				logger.Error("authenticate context", "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			ctx = devices.NewContext(ctx, dvc)
			for _, cookie := range dvc.ToCookies(r.TLS != nil) {
				w.Header().Add("Set-Cookie", cookie.String())
			}
			next(w, r.WithContext(ctx))
		}
	}
}
