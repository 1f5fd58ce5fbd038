package utils

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"
)

// MaxUploadSize caps medical record uploads at 5 MB.
const MaxUploadSize = 5 << 20

var allowedUploadTypes = map[string]bool{
	"image/jpg":       true,
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

var (
	ErrFileTooLarge        = errors.New("file exceeds the 5 MB upload limit")
	ErrUnsupportedFileType = errors.New("file type not allowed; only JPEG, PNG or PDF uploads are accepted")
)

// SaveUpload validates a multipart upload and stores it under dir with a
// randomized filename, keeping the original extension. It returns the stored
// filename and full path.
func SaveUpload(fh *multipart.FileHeader, dir string) (fileName string, filePath string, err error) {
	if fh.Size > MaxUploadSize {
		return "", "", ErrFileTooLarge
	}

	mimeType := fh.Header.Get("Content-Type")
	if !allowedUploadTypes[mimeType] {
		return "", "", ErrUnsupportedFileType
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	fileName = fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.Int63n(1_000_000_000), filepath.Ext(fh.Filename))
	filePath = filepath.Join(dir, fileName)

	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create stored file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", "", fmt.Errorf("failed to write stored file: %w", err)
	}

	return fileName, filePath, nil
}

// RemoveUpload deletes a stored upload. Used on failed validation paths so
// rejected requests do not orphan files on disk.
func RemoveUpload(path string) {
	if err := os.Remove(path); err != nil {
		log.Printf("failed to remove uploaded file %s: %v", path, err)
	}
}
