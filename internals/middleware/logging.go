package middle

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Middleware func(http.Handler) http.Handler

// Logger emits one structured line per request, warning on client errors
// and erroring on server errors. Websocket upgrades log on disconnect,
// when the hijacked connection finally closes.
func Logger(log *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()

				var evt *zerolog.Event
				switch {
				case status >= http.StatusInternalServerError:
					evt = log.Error()
				case status >= http.StatusBadRequest:
					evt = log.Warn()
				default:
					evt = log.Info()
				}

				evt.
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote", r.RemoteAddr).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
