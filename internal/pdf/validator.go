package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agenticmd/pdf2md/internal/domain"
)

// largeFileSize is the threshold above which loading logs a warning.
const largeFileSize = 100 * 1024 * 1024

// Validator checks file-path document sources before the engine sees them.
type Validator struct {
	log zerolog.Logger
}

// NewValidator creates a validator logging through log.
func NewValidator(log zerolog.Logger) *Validator {
	return &Validator{log: log}
}

// ValidatePath validates that path points at a readable PDF file.
func (v *Validator) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.LoadingError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.LoadingError(fmt.Sprintf("PDF file not found: %s", path), err)
		}
		return domain.LoadingError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.LoadingError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return domain.LoadingError(fmt.Sprintf("file is not a PDF (has extension %s)", ext), nil)
	}

	if info.Size() > largeFileSize {
		v.log.Warn().
			Str("path", path).
			Int64("size_mb", info.Size()/(1024*1024)).
			Msg("PDF file is very large, processing may take a while")
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.LoadingError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	f.Close()

	return nil
}
