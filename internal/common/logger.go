package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const logTimeFormat = "15:04:05"

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: logTimeFormat,
		TextOutput: true,
	}
}

// GetLogger returns the global logger, creating a console logger on first use
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		defer loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	// Double-check after acquiring write lock
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter())
	}
	return globalLogger
}

// SetLogger replaces the global logger
func SetLogger(logger arbor.ILogger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	globalLogger = logger
}

// InitLogger builds the arbor logger from the logging section and installs it globally.
// File output goes to logs/pasar.log next to the executable.
func InitLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger()

	outputs := make(map[string]bool, len(config.Logging.Output))
	for _, output := range config.Logging.Output {
		outputs[strings.ToLower(strings.TrimSpace(output))] = true
	}

	if outputs["file"] {
		if logFile, err := logFilePath(); err != nil {
			fmt.Printf("Warning: file logging disabled: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   logFile,
				TimeFormat: logTimeFormat,
				MaxSize:    50 * 1024 * 1024, // 50 MB
				MaxBackups: 3,
				TextOutput: true,
			})
		}
	}

	// Console output is the fallback when nothing else is configured
	if outputs["stdout"] || outputs["console"] || !outputs["file"] {
		logger = logger.WithConsoleWriter(consoleWriter())
	}

	level := config.Logging.Level
	if level == "" {
		level = "info"
	}
	logger = logger.WithLevelFromString(level)

	SetLogger(logger)
	return logger
}

func logFilePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}

	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}
	return filepath.Join(logsDir, "pasar.log"), nil
}
