package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"consola/internal/auth"
)

func ListUsers(svc *auth.Service, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, page, ok := pagination(w, r, rs)
		if !ok {
			return
		}
		out, err := svc.ListUsers(r.Context(), limit, (page-1)*limit)
		if err != nil {
			rs.Error(w, r, err)
			return
		}
		rs.JSON(w, http.StatusOK, out)
	}
}

// CreateUser takes the same body as registration; role_id is checked
// against the caller's level.
func CreateUser(svc *auth.Service, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := decode(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		actor, _ := auth.FromContext(r.Context())
		id, err := svc.CreateUser(r.Context(), actor, auth.RegisterInput{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			DisplayName: req.DisplayName,
			Phone:       req.Phone,
			RoleID:      req.RoleID,
			IP:          clientIP(r),
		})
		if err != nil {
			rs.Error(w, r, err)
			return
		}
		rs.JSON(w, http.StatusCreated, map[string]any{"message": "user created", "user_id": id})
	}
}

func UpdateUser(svc *auth.Service, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := userIDParam(w, r, rs)
		if !ok {
			return
		}
		var req auth.UserUpdate
		if err := decode(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		actor, _ := auth.FromContext(r.Context())
		p, err := svc.UpdateUser(r.Context(), actor, id, req, clientIP(r))
		if err != nil {
			rs.Error(w, r, err)
			return
		}
		rs.JSON(w, http.StatusOK, p)
	}
}

// DeleteUser deactivates; accounts are never removed.
func DeleteUser(svc *auth.Service, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := userIDParam(w, r, rs)
		if !ok {
			return
		}
		actor, _ := auth.FromContext(r.Context())
		if err := svc.DeactivateUser(r.Context(), actor, id, clientIP(r)); err != nil {
			rs.Error(w, r, err)
			return
		}
		rs.JSON(w, http.StatusOK, map[string]any{"message": "user deactivated"})
	}
}

func userIDParam(w http.ResponseWriter, r *http.Request, rs *Responder) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		rs.Error(w, r, &auth.Error{Kind: auth.KindValidation, Message: "invalid user id"})
		return 0, false
	}
	return uint(id), true
}
