package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// apiKeyHeader is the header clients authenticate with.
const apiKeyHeader = "X-API-Key"

// apiKeyAuth rejects requests whose X-API-Key header does not match the
// configured key.
func apiKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(apiKeyHeader)

			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				respondError(
					w,
					http.StatusUnauthorized,
					codeUnauthorized,
					"Invalid or missing API key.",
				)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request with the request ID assigned by
// chi's RequestID middleware.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// recoverer converts handler panics into the standard error envelope instead
// of letting them tear down the connection.
func recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logger.Error("panic in handler",
						zap.String("request_id", middleware.GetReqID(r.Context())),
						zap.String("path", r.URL.Path),
						zap.Any("panic", rec),
					)

					respondError(
						w,
						http.StatusInternalServerError,
						codeInternalError,
						fmt.Sprintf("panic: %v", rec),
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
