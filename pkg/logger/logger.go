package logger

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup configures the global zerolog logger: console output at debug level
// for local development, JSON at info level otherwise.
func Setup(isLocalDev bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if isLocalDev {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// EnrichContextWithLogger stores a logger carrying the active trace and span ids.
// Without a recording span the global logger is stored instead, so log.Ctx
// never falls back to the disabled logger.
func EnrichContextWithLogger(ctx context.Context) context.Context {
	l := log.Logger
	if sCtx := trace.SpanFromContext(ctx).SpanContext(); sCtx.HasTraceID() {
		l = l.With().
			Str("trace_id", sCtx.TraceID().String()).
			Str("span_id", sCtx.SpanID().String()).
			Logger()
	}
	return l.WithContext(ctx)
}

// Middleware attaches the request logger and logs one line per request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := EnrichContextWithLogger(r.Context())
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Ctx(ctx).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
