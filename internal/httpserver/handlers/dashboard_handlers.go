package handlers

import (
	"net/http"
	"time"

	"consola/internal/auth"
	"consola/internal/store"
)

func Stats(st *store.Store, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := st.Stats(r.Context(), time.Now())
		if err != nil {
			rs.Error(w, r, &auth.Error{Kind: auth.KindInternal, Message: "load statistics", Err: err})
			return
		}
		rs.JSON(w, http.StatusOK, stats)
	}
}

// Modules lists the navigation modules the caller's role can read.
func Modules(st *store.Store, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		mods, err := st.ModulesForRole(r.Context(), id.RoleID())
		if err != nil {
			rs.Error(w, r, &auth.Error{Kind: auth.KindInternal, Message: "load modules", Err: err})
			return
		}
		rs.JSON(w, http.StatusOK, mods)
	}
}
