package httpx

import "net/http"

// Middleware is a standard http.Handler wrapper.
type Middleware = func(http.Handler) http.Handler

// Chain applies middlewares to h so the first listed middleware is the
// outermost (runs first).
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
