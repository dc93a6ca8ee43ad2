package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger 将访问日志写入 zerolog，与服务日志使用同一输出。
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return chimw.RequestLogger(&logFormatter{logger: logger})
}

type logFormatter struct {
	logger zerolog.Logger
}

func (f *logFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	return &logEntry{
		logger: f.logger.With().
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Logger(),
	}
}

type logEntry struct {
	logger zerolog.Logger
}

func (e *logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.logger.Info().
		Int("status", status).
		Int("bytes", bytes).
		Dur("elapsed", elapsed).
		Msg("[http] request")
}

func (e *logEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error().
		Interface("panic", v).
		Bytes("stack", stack).
		Msg("[http] panic")
}
