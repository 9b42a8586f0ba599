package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// apiHandler is an http handler that can return an error. Returned errors
// are rendered by HandleResponseError.
type apiHandler func(w http.ResponseWriter, r *http.Request) error

type router struct {
	chi chi.Router
}

func newRouter() *router {
	return &router{chi: chi.NewRouter()}
}

func (r *router) Use(fn func(http.Handler) http.Handler) {
	r.chi.Use(fn)
}

func (r *router) With(fn func(http.Handler) http.Handler) *router {
	return &router{chi: r.chi.With(fn)}
}

func (r *router) Get(pattern string, fn apiHandler) {
	r.chi.Get(pattern, handler(fn))
}

func (r *router) Post(pattern string, fn apiHandler) {
	r.chi.Post(pattern, handler(fn))
}

func (r *router) Handle(pattern string, h http.Handler) {
	r.chi.Handle(pattern, h)
}

func handler(fn apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			HandleResponseError(err, w, r)
		}
	}
}
