package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"telcat/internal/ui"
)

// ErrorHandler renders failures for the user and records them as
// structured JSON in the log file.
type ErrorHandler struct {
	logger  *slog.Logger
	console *ui.Console
}

func NewErrorHandler() (*ErrorHandler, error) {
	logFile, err := createLogFile()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &ErrorHandler{
		logger:  logger,
		console: ui.NewConsole(),
	}, nil
}

// logDir returns the OS-standard log directory, honoring the
// TELCAT_LOG_DIR override.
func logDir() (string, error) {
	if customLogDir := os.Getenv("TELCAT_LOG_DIR"); customLogDir != "" {
		return customLogDir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Logs", "telcat"), nil
	case "windows":
		appDataDir := os.Getenv("APPDATA")
		if appDataDir == "" {
			appDataDir = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appDataDir, "telcat", "logs"), nil
	default:
		// XDG-ish default for Linux and the BSDs.
		return filepath.Join(homeDir, ".local", "share", "telcat", "logs"), nil
	}
}

// rotateLogFile rotates log files when the size limit is exceeded.
func rotateLogFile(logPath string) error {
	const maxFiles = 5

	for i := maxFiles - 1; i > 0; i-- {
		oldPath := fmt.Sprintf("%s.%d", logPath, i)
		newPath := fmt.Sprintf("%s.%d", logPath, i+1)

		if i == maxFiles-1 {
			if _, err := os.Stat(oldPath); err == nil {
				if err := os.Remove(oldPath); err != nil {
					slog.Warn("Failed to remove old log file", "path", oldPath, "error", err)
				}
			}
		} else if _, err := os.Stat(oldPath); err == nil {
			if err := os.Rename(oldPath, newPath); err != nil {
				slog.Warn("Failed to rotate log file", "old", oldPath, "new", newPath, "error", err)
			}
		}
	}

	if _, err := os.Stat(logPath); err == nil {
		return os.Rename(logPath, logPath+".1")
	}
	return nil
}

func checkLogRotation(logPath string) error {
	const maxSizeBytes = 10 * 1024 * 1024

	info, err := os.Stat(logPath)
	if err != nil {
		// No file yet, nothing to rotate.
		return nil
	}
	if info.Size() >= maxSizeBytes {
		return rotateLogFile(logPath)
	}
	return nil
}

func createLogFile() (*os.File, error) {
	dir, err := logDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(dir, "telcat.log")
	if err := checkLogRotation(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to rotate log file: %v\n", err)
	}

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var launchErr *LaunchError
	if errors.As(err, &launchErr) {
		h.handleLaunchError(launchErr)
	} else {
		h.handleGenericError(err)
	}
}

func (h *ErrorHandler) handleLaunchError(err *LaunchError) {
	h.logStructuredError(err)

	message := h.console.FormatErrorMessage(err.Context, err.Cause, err.Suggestion)
	h.console.PrintError(message)
}

func (h *ErrorHandler) handleGenericError(err error) {
	h.logger.Error("Unhandled error occurred",
		"error", err.Error(),
		"type", "generic",
	)

	h.console.PrintError(err.Error())
}

func (h *ErrorHandler) logStructuredError(err *LaunchError) {
	logAttrs := []slog.Attr{
		slog.String("error", err.OriginalErr.Error()),
		slog.String("type", getErrorTypeName(err.Type)),
		slog.String("context", err.Context),
	}

	if err.Cause != "" {
		logAttrs = append(logAttrs, slog.String("cause", err.Cause))
	}
	if err.Suggestion != "" {
		logAttrs = append(logAttrs, slog.String("suggestion", err.Suggestion))
	}

	h.logger.LogAttrs(context.TODO(), slog.LevelError, "Launch error occurred", logAttrs...)
}

func getErrorTypeName(errType error) string {
	switch errType {
	case ErrBuildFailed:
		return "build_failed"
	case ErrRuntimeUnavailable:
		return "runtime_unavailable"
	case ErrLaunchFailed:
		return "launch_failed"
	case ErrConfigInvalid:
		return "config_invalid"
	case ErrFileSystemFailed:
		return "filesystem_failed"
	default:
		return "unknown"
	}
}
