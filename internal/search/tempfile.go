package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// WriteTempImage writes an uploaded image buffer to a uniquely named file in
// the OS temp directory and returns its path together with a cleanup func.
// The cleanup func is safe to call multiple times; callers must defer it so
// the file is removed on every exit path.
func WriteTempImage(data []byte, originalName string) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("supra_upload_%s%s", uuid.NewString(), ext))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", func() {}, fmt.Errorf("failed to write temp image: %w", err)
	}

	cleanup := func() { _ = os.Remove(path) }
	return path, cleanup, nil
}
