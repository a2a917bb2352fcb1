// Package workdir provides a scoped working-directory change with
// guaranteed restoration.
package workdir

import (
	"fmt"
	"log/slog"
	"os"
)

// Enter switches the process working directory to dir and returns a
// restore func that switches back to where the process was. The caller
// defers the restore so it runs on every exit path, including failures.
func Enter(dir string) (func(), error) {
	original, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to capture working directory: %w", err)
	}

	if err := os.Chdir(dir); err != nil {
		return nil, fmt.Errorf("failed to enter directory %s: %w", dir, err)
	}

	return func() {
		if err := os.Chdir(original); err != nil {
			slog.Error("Failed to restore working directory", "dir", original, "error", err)
		}
	}, nil
}
