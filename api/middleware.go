package api

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"CashbookRecon/api/constants"
	"CashbookRecon/api/utils"
	"CashbookRecon/internal/logger"

	"golang.org/x/time/rate"
)

const maxLoggedBody = 512

// responseWriter wraps http.ResponseWriter to capture the status code and
// the start of error bodies.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode >= 400 && rw.body.Len() < maxLoggedBody {
		n := maxLoggedBody - rw.body.Len()
		if n > len(b) {
			n = len(b)
		}
		rw.body.Write(b[:n])
	}
	return rw.ResponseWriter.Write(b)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		var msg string
		if rw.statusCode >= 400 {
			msg = fmt.Sprintf("[Gateway][ERROR] %s %s from %s, status %d in %s, error: %s",
				r.Method, r.URL.Path, clientIP(r), rw.statusCode, time.Since(start).Round(time.Microsecond), strings.TrimSpace(rw.body.String()))
		} else {
			msg = fmt.Sprintf("[Gateway] %s %s from %s, status %d in %s",
				r.Method, r.URL.Path, clientIP(r), rw.statusCode, time.Since(start).Round(time.Microsecond))
		}
		if r.Method == http.MethodGet {
			log.Println(msg)
			return
		}
		logger.Audit("%s", msg)
	})
}

// rateLimitMiddleware shares one token bucket across the wrapped routes.
// A nil limiter disables limiting.
func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Printf("[WARN] rate limit exceeded: %s %s from %s", r.Method, r.URL.Path, clientIP(r))
				utils.RespondWithError(w, http.StatusTooManyRequests, constants.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware allows the listed origins; "*" allows any.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSpace(o)] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowed["*"] || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				utils.RespondWithError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
