// Package audit records security-relevant events on a best-effort basis.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"consola/internal/metrics"
	"consola/internal/models"
)

// Action and module tags written to the activity log.
const (
	ActionLoginFailed    = "login_fallido"
	ActionLoginSucceeded = "login_exitoso"
	ActionRegister       = "registro_usuario"
	ActionLogout         = "logout"
	ActionUserCreated    = "crear_usuario"
	ActionUserUpdated    = "actualizar_usuario"
	ActionUserDisabled   = "desactivar_usuario"

	ModuleAuth  = "auth"
	ModuleUsers = "Usuarios"
)

// writeTimeout bounds one activity write so a slow database cannot hold a
// request open indefinitely.
const writeTimeout = 5 * time.Second

type Event struct {
	ActorID     *uint
	Action      string
	Module      string
	Description string
	IP          string
	Payload     any
}

// Recorder accepts events without reporting failure to the caller.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// Sink persists one activity row.
type Sink interface {
	AppendActivity(ctx context.Context, entry *models.ActivityLog) error
}

type DBRecorder struct {
	sink    Sink
	lg      *zap.SugaredLogger
	metrics *metrics.Metrics
}

func NewDBRecorder(sink Sink, lg *zap.SugaredLogger, m *metrics.Metrics) *DBRecorder {
	return &DBRecorder{sink: sink, lg: lg, metrics: m}
}

// Record writes ev synchronously. Errors are logged and counted, then dropped.
// The write is detached from ctx cancellation.
func (r *DBRecorder) Record(ctx context.Context, ev Event) {
	entry := models.ActivityLog{
		UserID:      ev.ActorID,
		Action:      ev.Action,
		Module:      ev.Module,
		Description: ev.Description,
		IPAddress:   ev.IP,
	}
	if ev.Payload != nil {
		b, err := json.Marshal(ev.Payload)
		if err != nil {
			r.lg.Warnw("audit payload dropped", "action", ev.Action, "error", err)
		} else {
			entry.Payload = models.JSONText(b)
		}
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := r.sink.AppendActivity(wctx, &entry); err != nil {
		r.metrics.AuditFailure()
		r.lg.Errorw("audit write failed", "action", ev.Action, "module", ev.Module, "error", err)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
