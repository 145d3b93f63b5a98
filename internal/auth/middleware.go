package auth

import (
	"net/http"
)

// ErrorWriter renders an error response for a failed request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator resolves the caller on every request and stores the
// Identity in the request context. No part of the result is cached.
func Authenticator(svc *Service, onErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := svc.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				onErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Authorize runs gates as one pipeline against the identity placed by
// Authenticator.
func Authorize(onErr ErrorWriter, gates ...Gate) func(http.Handler) http.Handler {
	p := Pipeline(gates)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				onErr(w, r, newError(KindUnauthenticated, "not authenticated", nil))
				return
			}
			if err := p.Run(r.Context(), id); err != nil {
				onErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
