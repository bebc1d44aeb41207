package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"

	"github.com/JaimeStill/shroud/pkg/handlers"
)

// System is an ordered middleware stack. The first middleware added is the
// outermost wrapper.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack []func(http.Handler) http.Handler

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw func(http.Handler) http.Handler) {
	*s = append(*s, mw)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(*s) {
		handler = mw(handler)
	}
	return handler
}

// Recover turns a panic raised while serving a request into a 500 JSON error
// and logs the stack. http.ErrAbortHandler is re-raised so the server can
// abort the response as usual.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				handlers.RespondSafeError(
					w,
					logger.With("path", r.URL.Path, "stack", string(debug.Stack())),
					http.StatusInternalServerError,
					fmt.Errorf("panic: %v", rec),
					"internal server error",
				)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
