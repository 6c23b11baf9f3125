package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 500 * time.Millisecond

// zerologWriter adapts gorm's printf-style logger output to zerolog.
type zerologWriter struct {
	logger zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...any) {
	w.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func newGormLogger(logger zerolog.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(zerologWriter{logger: logger.With().Str("component", "gorm").Logger()}, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// resolveGormLogLevel maps LOG_LEVEL onto gorm's levels. SQL statements are
// only traced at debug.
func resolveGormLogLevel(appLogLevel, environment string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(appLogLevel)) {
	case "trace", "debug":
		return gormlogger.Info
	case "warn", "warning", "info", "":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	case "silent":
		return gormlogger.Silent
	}
	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		return gormlogger.Warn
	}
	return gormlogger.Error
}
