package handlers

import (
	"math"
	"net/http"
	"strconv"

	"consola/internal/auth"
	"consola/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Activity pages through the caller's own audit trail.
func Activity(st *store.Store, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, page, ok := pagination(w, r, rs)
		if !ok {
			return
		}
		id, _ := auth.FromContext(r.Context())
		items, total, err := st.ActivityForUser(r.Context(), id.UserID(), limit, (page-1)*limit)
		if err != nil {
			rs.Error(w, r, &auth.Error{Kind: auth.KindInternal, Message: "load activity", Err: err})
			return
		}
		rs.JSON(w, http.StatusOK, map[string]any{
			"items":       items,
			"total":       total,
			"page":        page,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
		})
	}
}

// pagination reads limit/page (or limite/pagina). limit defaults to 20 and
// is capped at 100; page must keep (page-1)*limit within int. On bad input
// it writes the error and returns ok=false.
func pagination(w http.ResponseWriter, r *http.Request, rs *Responder) (limit, page int, ok bool) {
	limit, err := queryInt(r, defaultPageSize, "limit", "limite")
	if err != nil || limit < 1 {
		rs.Error(w, r, &auth.Error{Kind: auth.KindValidation, Message: "limit must be a positive integer"})
		return 0, 0, false
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page, err = queryInt(r, 1, "page", "pagina")
	if err != nil || page < 1 {
		rs.Error(w, r, &auth.Error{Kind: auth.KindValidation, Message: "page must be a positive integer"})
		return 0, 0, false
	}
	if page-1 > math.MaxInt/limit {
		rs.Error(w, r, &auth.Error{Kind: auth.KindValidation, Message: "page is out of range"})
		return 0, 0, false
	}
	return limit, page, true
}

func queryInt(r *http.Request, fallback int, names ...string) (int, error) {
	q := r.URL.Query()
	for _, n := range names {
		if raw := q.Get(n); raw != "" {
			return strconv.Atoi(raw)
		}
	}
	return fallback, nil
}
