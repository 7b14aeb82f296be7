package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadBytes 默认上传上限 10MB
const MaxUploadBytes int64 = 10 << 20

var (
	ErrUnsupportedType = errors.New("Solo se permiten archivos Excel (.xlsx, .xls)")
	ErrTooLarge        = errors.New("archivo demasiado grande")
	ErrEmptyFile       = errors.New("El archivo está vacío")
)

var spreadsheetTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel": true,
}

// Upload describes a file handed to the ingestion boundary.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
}

// SizeError 超出大小限制
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("El archivo es muy grande. Tamaño máximo: %dMB. Tamaño actual: %.2fMB",
		e.Limit>>20, float64(e.Size)/(1<<20))
}

func (e *SizeError) Unwrap() error { return ErrTooLarge }

// CheckUpload validates type and size before any parsing happens. limit <= 0 means MaxUploadBytes.
func CheckUpload(u Upload, limit int64) error {
	if limit <= 0 {
		limit = MaxUploadBytes
	}
	ext := strings.ToLower(filepath.Ext(u.Name))
	mime := strings.ToLower(strings.TrimSpace(strings.Split(u.ContentType, ";")[0]))
	if !spreadsheetTypes[mime] && ext != ".xlsx" && ext != ".xls" {
		return ErrUnsupportedType
	}
	if u.Size == 0 {
		return ErrEmptyFile
	}
	if u.Size > limit {
		return &SizeError{Size: u.Size, Limit: limit}
	}
	return nil
}
