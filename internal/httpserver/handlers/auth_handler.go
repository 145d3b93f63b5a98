package handlers

import (
	"net/http"

	"consola/internal/auth"
)

type registerReq struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName string  `json:"display_name"`
	Phone       *string `json:"phone,omitempty"`
	RoleID      *uint   `json:"role_id,omitempty"`
}

func Register(svc *auth.Service, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := decode(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		id, err := svc.Register(r.Context(), auth.RegisterInput{
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
		rs.JSON(w, http.StatusCreated, map[string]any{"message": "user registered", "user_id": id})
	}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login accepts a username or an email in the username field.
func Login(svc *auth.Service, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decode(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		res, err := svc.Login(r.Context(), auth.LoginInput{
			Login:     req.Username,
			Password:  req.Password,
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
		})
		if err != nil {
			rs.Error(w, r, err)
			return
		}
		rs.JSON(w, http.StatusOK, res)
	}
}

func Logout(svc *auth.Service, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		if err := svc.Logout(r.Context(), id, clientIP(r)); err != nil {
			rs.Error(w, r, err)
			return
		}
		rs.JSON(w, http.StatusOK, map[string]any{"message": "session closed"})
	}
}

func Profile(svc *auth.Service, rs *Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		p, err := svc.Profile(r.Context(), id.UserID())
		if err != nil {
			rs.Error(w, r, err)
			return
		}
		rs.JSON(w, http.StatusOK, p)
	}
}
