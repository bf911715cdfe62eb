package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Recoverer turns a handler panic into a JSON 500. http.ErrAbortHandler is
// re-raised so net/http can drop the connection as the handler asked.
func Recoverer(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				logger.Error().
					Str("panic", fmt.Sprint(rvr)).
					Bytes("stack", debug.Stack()).
					Str("request_id", chimiddleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("handler panicked")

				writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
