package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"consola/internal/models"
	"consola/internal/store"
)

type sinkFunc func(ctx context.Context, entry *models.ActivityLog) error

func (f sinkFunc) AppendActivity(ctx context.Context, entry *models.ActivityLog) error {
	return f(ctx, entry)
}

func TestRecordWritesEntry(t *testing.T) {
	var got *models.ActivityLog
	rec := NewDBRecorder(sinkFunc(func(_ context.Context, e *models.ActivityLog) error {
		got = e
		return nil
	}), zap.NewNop().Sugar(), nil)

	uid := uint(9)
	rec.Record(context.Background(), Event{
		ActorID:     &uid,
		Action:      ActionLoginSucceeded,
		Module:      ModuleAuth,
		Description: "login ok",
		IP:          "10.0.0.1",
		Payload:     map[string]string{"agent": "curl"},
	})

	require.NotNil(t, got)
	assert.Equal(t, &uid, got.UserID)
	assert.Equal(t, ActionLoginSucceeded, got.Action)
	assert.Equal(t, "10.0.0.1", got.IPAddress)
	assert.JSONEq(t, `{"agent":"curl"}`, string(got.Payload))
}

func TestRecordIgnoresCanceledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	rec := NewDBRecorder(sinkFunc(func(ctx context.Context, _ *models.ActivityLog) error {
		sawErr = ctx.Err()
		return nil
	}), zap.NewNop().Sugar(), nil)

	rec.Record(ctx, Event{Action: ActionLogout, Module: ModuleAuth})
	assert.NoError(t, sawErr)
}

func TestRecordSwallowsFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rec := NewDBRecorder(sinkFunc(func(context.Context, *models.ActivityLog) error {
		return errors.New("disk full")
	}), zap.New(core).Sugar(), nil)

	assert.NotPanics(t, func() {
		rec.Record(context.Background(), Event{Action: ActionLoginFailed, Module: ModuleAuth})
	})
	require.Equal(t, 1, logs.FilterMessage("audit write failed").Len())
}

func TestRecordSwallowsDatabaseFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO "activity_logs"`).WillReturnError(errors.New("relation does not exist"))

	core, logs := observer.New(zap.ErrorLevel)
	rec := NewDBRecorder(store.New(db), zap.New(core).Sugar(), nil)
	rec.Record(context.Background(), Event{Action: ActionRegister, Module: ModuleAuth, Description: "new user"})

	assert.Equal(t, 1, logs.Len())
	require.NoError(t, mock.ExpectationsWereMet())
}
