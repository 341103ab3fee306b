package media

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is matched by every *FormatError.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatError rejects an upload by its extension before storage is touched.
type FormatError struct {
	FileName string
	Ext      string
}

func (e *FormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("%s: missing extension: %v", e.FileName, ErrUnsupportedFormat)
	}
	return fmt.Sprintf("%s: %v %q", e.FileName, ErrUnsupportedFormat, e.Ext)
}

func (e *FormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// ProcessingError is a decode/resize/encode failure.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string { return "image " + e.Op + ": " + e.Err.Error() }
func (e *ProcessingError) Unwrap() error { return e.Err }

// StorageError is a failed write or delete against the object store.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string { return "storage " + e.Op + " " + e.Path + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }
