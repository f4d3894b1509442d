// Package woodlog builds the process-wide structured logger. WOOFNB logs
// cache hits, cache failures and unexpected cell state transitions as
// structured fields rather than interpolated strings, so operators can
// grep or pipe the output into a log aggregator.
//
// Grounded on the category/field shape of the pack's logging.Logger
// (theRebelliousNerd-codenerd's internal/logging), but built on
// go.uber.org/zap rather than a hand-rolled *log.Logger, since zap is
// already part of the domain stack (SPEC_FULL.md §4.11) and gives
// leveled, structured output for free.
package woodlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/woofnb/woofnb/internal/woofconfig"
)

// New builds a *zap.Logger configured from cfg.LogLevel/cfg.LogFormat
// (SPEC_FULL.md §4.10). Format "json" produces one JSON object per line;
// any other value produces the human-readable console encoder.
func New(cfg woofconfig.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.LogFormat == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}

// ForRun returns a child logger scoped to one notebook run, attaching
// notebook path and run ID to every subsequent entry.
func ForRun(base *zap.Logger, notebookPath, runID string) *zap.Logger {
	return base.With(zap.String("notebook", notebookPath), zap.String("run_id", runID))
}

// ForCell further scopes a run logger to a single cell.
func ForCell(runLogger *zap.Logger, cellID string) *zap.Logger {
	return runLogger.With(zap.String("cell_id", cellID))
}
