// Package logging builds the zap logger used by the CLI and adapts it to the
// calculation.Logger interface.
package logging

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/ofmcalc/internal/calculation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the zap logger.
type Config struct {
	Level   string
	Format  string
	Debug   bool
	Version string
}

// New builds a structured zap.Logger writing to stderr, so report output on
// stdout stays clean.
func New(cfg Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = normalizeFormat(cfg.Format)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}
	zapCfg.Sampling = nil

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "warn"
	}
	if cfg.Debug {
		level = "debug"
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "ofmcalc"), zap.String("version", cfg.Version)), nil
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "json" {
		return "json"
	}
	return "console"
}

var _ calculation.Logger = (*Adapter)(nil)

// Adapter exposes a zap logger through the printf-style calculation.Logger
type Adapter struct {
	sugar *zap.SugaredLogger
}

// NewAdapter wraps l; a nil logger logs nothing
func NewAdapter(l *zap.Logger) *Adapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &Adapter{sugar: l.Sugar()}
}

func (a *Adapter) Debugf(format string, args ...interface{}) { a.sugar.Debugf(format, args...) }
func (a *Adapter) Infof(format string, args ...interface{})  { a.sugar.Infof(format, args...) }
func (a *Adapter) Warnf(format string, args ...interface{})  { a.sugar.Warnf(format, args...) }
func (a *Adapter) Errorf(format string, args ...interface{}) { a.sugar.Errorf(format, args...) }
