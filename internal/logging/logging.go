package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultPath is where debug logs land when no file is named.
const DefaultPath = "git-whence.log"

// New returns the application logger. With debug off everything is
// discarded: the terminal belongs to the interactive session, so logs only
// ever go to a file, and only when asked for.
func New(debug bool, path string) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	if path == "" {
		path = DefaultPath
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	return config.Build()
}
