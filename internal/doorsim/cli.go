// Package doorsim plays scripted visits through the door controller and
// checks the monitor's report against them.
package doorsim

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/doorlog/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initialises the global logger. When logFile is set, output
// is also appended to that file.
func SetupLogging(logFile string) (io.Closer, error) {
	if logFile == "" {
		if err := logger.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nopCloser{}, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
