package search

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid image input")
	ErrNotFound     = errors.New("image file not found")
	ErrTooLarge     = errors.New("image exceeds size limit")
)

// MaxImageSize is the inclusive upper bound on image file size.
const MaxImageSize = 20 << 20 // 20 MiB

// mimeByExt maps accepted file extensions to the MIME type attached to the
// descriptor. The type is derived purely from the extension; file contents
// are never sniffed.
var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

// acceptedExts additionally admits formats without an entry in mimeByExt;
// those fall back to image/jpeg with a warning.
var acceptedExts = map[string]bool{
	".heic": true,
	".heif": true,
}

// IngestImage validates and reads the image at path into an immutable
// base64 descriptor. The extension is checked before any file IO: an
// unsupported extension returns ErrInvalidInput without touching the disk.
func IngestImage(path string) (*ImageDescriptor, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(path))
	mimeType, known := mimeByExt[ext]
	if !known {
		if !acceptedExts[ext] {
			return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidInput, ext)
		}
		mimeType = "image/jpeg"
		slog.Warn("no mime mapping for image extension, falling back to jpeg", "ext", ext)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, absPath)
		}
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.Size() > MaxImageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return &ImageDescriptor{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}, nil
}
