package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"consola/internal/auth"
	"consola/internal/metrics"
)

// Responder writes JSON bodies and maps auth errors to HTTP statuses.
// In development mode error bodies also carry the internal detail.
type Responder struct {
	lg      *zap.SugaredLogger
	dev     bool
	metrics *metrics.Metrics
}

func NewResponder(lg *zap.SugaredLogger, dev bool, m *metrics.Metrics) *Responder {
	return &Responder{lg: lg, dev: dev, metrics: m}
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// JSON writes v with status.
func (rs *Responder) JSON(w http.ResponseWriter, status int, v interface{}) {
	respondJSON(w, status, v)
}

type errorBody struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Error is an auth.ErrorWriter.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := auth.KindOf(err)
	rs.metrics.ErrorResponse(kind.String())

	var ae *auth.Error
	msg := "internal error"
	if errors.As(err, &ae) {
		msg = ae.Message
	}

	status := http.StatusInternalServerError
	switch kind {
	case auth.KindValidation, auth.KindDuplicateUser:
		status = http.StatusBadRequest
	case auth.KindInvalidCredentials:
		status = http.StatusUnauthorized
	case auth.KindUnauthenticated, auth.KindInvalidToken, auth.KindSessionExpired:
		status = http.StatusUnauthorized
		msg = "authentication required"
		w.Header().Set("WWW-Authenticate", `Bearer realm="consola"`)
	case auth.KindForbidden:
		status = http.StatusForbidden
	case auth.KindNotFound:
		status = http.StatusNotFound
	default:
		msg = "internal error"
		rs.lg.Errorw("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	}

	body := errorBody{Error: msg}
	if rs.dev {
		body.Kind = kind.String()
		body.Detail = err.Error()
	}
	respondJSON(w, status, body)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIP is the caller address after middleware.RealIP.
func ClientIP(r *http.Request) string { return clientIP(r) }

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &auth.Error{Kind: auth.KindValidation, Message: "malformed JSON body", Err: err}
	}
	return nil
}
