// Package recoverer turns handler panics into a logged 500 response.
package recoverer

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shrimpli/pkg/middleware"
	"github.com/vadimbarashkov/shrimpli/pkg/response"
)

func New(logger *slog.Logger) middleware.Middleware {
	const op = "middleware.recoverer.New"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error(
					"panic recovered",
					slog.Group(op,
						slog.Any("err", rvr),
						slog.String("request_id", chimw.GetReqID(r.Context())),
						slog.String("stack", string(debug.Stack())),
					),
				)

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
