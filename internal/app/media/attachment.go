package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"studiosite/internal/pkg/errs"
)

const (
	// MaxUploadSizeMB is the maximum allowed file size in megabytes.
	MaxUploadSizeMB = 10

	// MaxUploadSize is the maximum allowed file size in bytes.
	MaxUploadSize = MaxUploadSizeMB * 1024 * 1024

	// PresignedURLDuration is how long upload and download URLs stay valid.
	PresignedURLDuration = 5 * time.Minute
)

// Folders admins may upload into, one per content type.
var Folders = map[string]struct{}{
	"projects":   {},
	"experience": {},
	"blog":       {},
}

// AllowedMIMETypes defines the permitted MIME types for uploaded media.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/png":     {},
	"image/webp":    {},
	"image/gif":     {},
	"image/svg+xml": {},
}

// ExtToMIME maps file extensions to their corresponding MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

// Object describes a stored media file.
type Object struct {
	Key      string `json:"fileKey"`
	Name     string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"fileSize"`
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxUploadSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks that the MIME type is allowed and matches the file extension.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) < 2 {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrFileTypeInvalid)
	}

	return nil
}

// NewObjectKey returns "<folder>/<uuid><ext>" for an upload named fileName.
func NewObjectKey(folder, fileName string) (string, *errs.CustomError) {
	if _, ok := Folders[folder]; !ok {
		return "", errs.NewError(errs.ErrInvalidParams)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext), nil
}

// KeyInFolders reports whether key lives in one of the upload folders.
func KeyInFolders(key string) bool {
	folder, rest, ok := strings.Cut(key, "/")
	if !ok || rest == "" || strings.Contains(rest, "..") {
		return false
	}
	_, known := Folders[folder]
	return known
}
