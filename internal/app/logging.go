package app

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

// LoggingConfig configures logging wiring.
type LoggingConfig struct {
	// Level is a zap level name. "debug" selects the development encoder.
	Level  string
	Logger *zap.Logger
	// RunID marks Logger as already carrying this run id.
	RunID  string
}

// Logging bundles the process logger and its run id.
type Logging struct {
	Logger *zap.Logger
	RunID  string
}

// NewLogging constructs the process logger. A logger passed in cfg is used
// as is, apart from the run id field.
func NewLogging(cfg LoggingConfig) (Logging, error) {
	if cfg.Logger != nil && cfg.RunID != "" {
		return Logging{Logger: cfg.Logger, RunID: cfg.RunID}, nil
	}
	runID := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		built, err := buildLogger(cfg.Level)
		if err != nil {
			return Logging{}, err
		}
		logger = built
	}
	return Logging{
		Logger: logger.With(telemetry.RunIDField(runID)),
		RunID:  runID,
	}, nil
}

// NewLogger returns the logger from a Logging bundle.
func NewLogger(logging Logging) *zap.Logger {
	return logging.Logger
}

func buildLogger(level string) (*zap.Logger, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "warn"
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var cfg zap.Config
	if parsed == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
