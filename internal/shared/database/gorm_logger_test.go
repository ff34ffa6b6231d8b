package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinicq/pkg/logger"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		elapsed   time.Duration
		err       error
		wantQuery bool
	}{
		{name: "silent never renders", level: gormlogger.Silent, err: errors.New("boom"), wantQuery: false},
		{name: "error logged", level: gormlogger.Error, err: errors.New("boom"), wantQuery: true},
		{name: "record not found ignored", level: gormlogger.Warn, err: gorm.ErrRecordNotFound, wantQuery: false},
		{name: "slow query at warn", level: gormlogger.Warn, elapsed: time.Second, wantQuery: true},
		{name: "fast query at warn", level: gormlogger.Warn, wantQuery: false},
		{name: "every query at info", level: gormlogger.Info, wantQuery: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewGormLogger(logger.GetDefault(), false).LogMode(tt.level)

			rendered := false
			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), func() (string, int64) {
				rendered = true
				return "SELECT 1", 1
			}, tt.err)

			assert.Equal(t, tt.wantQuery, rendered)
		})
	}
}

func TestNewGormLogger_Level(t *testing.T) {
	assert.Equal(t, gormlogger.Warn, NewGormLogger(logger.GetDefault(), false).level)
	assert.Equal(t, gormlogger.Info, NewGormLogger(logger.GetDefault(), true).level)
}
