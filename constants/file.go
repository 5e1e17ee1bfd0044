package constants

import (
	"path/filepath"
	"strings"
)

// Source types understood by the ingestion adapter registry.
const (
	SourceLocal = "local"
	SourceURL   = "url"
	SourceS3    = "s3"
)

// DefaultSupportedMIMETypes is the ingestion allow-list used when no
// override is configured.
var DefaultSupportedMIMETypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/tiff",
	"image/bmp",
	"image/webp",
}

var extToMIME = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MIMETypeForPath guesses a MIME type from a filename, empty when unknown.
func MIMETypeForPath(path string) string {
	return extToMIME[NormalizeExt(filepath.Ext(path))]
}

// IsImageFormat reports whether the format is a raster image (scanned input).
func IsImageFormat(format string) bool {
	switch NormalizeExt(format) {
	case "png", "jpg", "jpeg", "tif", "tiff", "bmp", "webp":
		return true
	}
	return false
}
