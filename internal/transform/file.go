package transform

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxFileSize is the upload cap, 16 MiB.
const MaxFileSize = 16 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

// FileError represents a local input rejection, caught before any network
// call.
type FileError struct {
	Message string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("invalid file: %s", e.Message)
}

// CheckFile validates the selected file locally: extension and size only,
// content is the parsing service's business.
func CheckFile(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return &FileError{Message: fmt.Sprintf("unsupported extension %q (allowed: pdf, docx)", ext)}
	}
	if size == 0 {
		return &FileError{Message: "file is empty"}
	}
	if size > MaxFileSize {
		return &FileError{Message: fmt.Sprintf("file is %d bytes, the limit is 16 MiB", size)}
	}
	return nil
}
