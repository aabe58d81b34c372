package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Recover turns a panic in a handler into a logged 500 JSON response. The
// process keeps serving other requests.
//
// http.ErrAbortHandler is re-panicked: net/http uses it to abort a
// response on purpose. If the handler had already started its response the
// panic is only logged; a status and body cannot be sent twice.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracked := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					slog.String("panic", fmt.Sprint(rec)),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("requestID", chimiddleware.GetReqID(r.Context())),
					slog.Bool("responseStarted", tracked.wroteHeader),
					slog.String("stack", string(debug.Stack())),
				)

				if tracked.wroteHeader {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"success":false,"error":"internal_error","message":"server error"}` + "\n"))
			}()

			next.ServeHTTP(tracked, r)
		})
	}
}
