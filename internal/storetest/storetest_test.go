package storetest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"consola/internal/storetest"
)

func TestOpenUsesStoreGormConfig(t *testing.T) {
	db := storetest.Open(t)

	assert.True(t, db.Config.TranslateError)
	assert.Equal(t, time.UTC, db.Config.NowFunc().Location())
}
