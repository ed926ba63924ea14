// Package logger holds the process-wide zap logger and the gin request log middleware.
//
// Lambda, the local server and the registrar log JSON to stdout. The MCP server keeps
// stdout for the protocol and logs to stderr through InitWithOutput.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is nil until Init runs; use GetLogger.
var Log *zap.Logger

const defaultLevel = "info"

func Init(level string) error {
	return InitWithOutput(level, "stdout")
}

// InitWithOutput builds a JSON logger at level ("debug", "info", ...; empty means info)
// writing to outputPaths. An unknown level is an error and leaves Log untouched.
func InitWithOutput(level string, outputPaths ...string) error {
	if level == "" {
		level = defaultLevel
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.StacktraceKey = ""
	encoder.TimeKey = "time"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    encoder,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
	if err != nil {
		return err
	}

	Log = built
	return nil
}

// GetLogger falls back to a production logger when Init was never called, e.g. in tests.
func GetLogger() *zap.Logger {
	if Log == nil {
		fallback, err := zap.NewProduction(zap.WithCaller(false))
		if err != nil {
			panic(err)
		}
		Log = fallback
	}
	return Log
}

func Sync() error {
	if Log == nil {
		return nil
	}
	return Log.Sync()
}
