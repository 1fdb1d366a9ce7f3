package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusWriter captures the status code written by downstream handlers.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func wrapWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.wroteHeader {
		return
	}
	sw.status = code
	sw.wroteHeader = true
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.wroteHeader {
		sw.WriteHeader(http.StatusOK)
	}
	return sw.ResponseWriter.Write(b)
}

// LogFields carries billing attributes that inner middleware and handlers
// attach for the access-log line written when the request completes. Auth
// records the masked key prefix; the metered handlers record the operation.
type LogFields struct {
	KeyPrefix string
	Operation string
}

const logFieldsKey contextKey = "log_fields"

// LogFieldsFromContext returns the request's log fields, or nil when the
// Logger middleware is not in the chain.
func LogFieldsFromContext(ctx context.Context) *LogFields {
	f, _ := ctx.Value(logFieldsKey).(*LogFields)
	return f
}

// Logger writes one structured access-log line per request. The billing
// identity appears only as a masked key prefix; raw keys and Authorization
// headers never reach the log.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			fields := &LogFields{}
			r = r.WithContext(context.WithValue(r.Context(), logFieldsKey, fields))

			sw := wrapWriter(w)
			next.ServeHTTP(sw, r)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", sw.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			}
			if fields.KeyPrefix != "" {
				attrs = append(attrs, slog.String("key_prefix", fields.KeyPrefix))
			}
			if fields.Operation != "" {
				attrs = append(attrs, slog.String("operation", fields.Operation))
			}
			if trace := TraceIDFromContext(r.Context()); trace != "" {
				attrs = append(attrs, slog.String("trace_id", trace))
			}

			level := slog.LevelInfo
			switch {
			case sw.status >= 500:
				level = slog.LevelError
			case sw.status >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}
