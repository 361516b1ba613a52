// Package logging adapts zap to the notion.Logger interface.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// Static errors for err113 compliance.
var (
	ErrUnknownLevel  = errors.New("unknown log level")
	ErrUnknownFormat = errors.New("unknown log format")
)

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects the level, encoding and destination of log output.
type Config struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string
	// Format is json or console. Empty means console.
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

// Logger implements notion.Logger on top of a zap logger.
type Logger struct {
	z *zap.Logger
}

var _ notion.Logger = (*Logger)(nil)

// New builds a logger from config.
func New(config Config) (*Logger, error) {
	level, err := parseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder

	switch strings.ToLower(config.Format) {
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case FormatConsole, "":
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, config.Format)
	}

	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), level)

	return &Logger{z: zap.New(core)}, nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}

	return &Logger{z: z}
}

// Debug implements notion.Logger.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.z.Debug(msg, zapFields(fields)...)
}

// Info implements notion.Logger.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.z.Info(msg, zapFields(fields)...)
}

// Warn implements notion.Logger.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.z.Warn(msg, zapFields(fields)...)
}

// Error implements notion.Logger.
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.z.Error(msg, zapFields(fields)...)
}

// Sync flushes buffered output.
func (l *Logger) Sync() error {
	err := l.z.Sync()
	if err != nil {
		return fmt.Errorf("failed to sync logger: %w", err)
	}

	return nil
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%w: %s", ErrUnknownLevel, level)
	}

	return parsed, nil
}

// zapFields converts a field map in key order so output is stable.
func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		if err, ok := fields[key].(error); ok {
			out = append(out, zap.NamedError(key, err))

			continue
		}

		out = append(out, zap.Any(key, fields[key]))
	}

	return out
}
