package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers a missing source file and an unknown record code
	ErrNotFound = errors.New("not found")
	// ErrMissingCode marks an import row without a usable PSGC code
	ErrMissingCode = errors.New("missing or invalid code")
	// ErrInvalidOption marks rejected import/export/list options
	ErrInvalidOption = errors.New("invalid option")
)

// FatalImportError aborts an import run; the whole transaction is rolled back
type FatalImportError struct {
	Table string
	Line  int
	Err   error
}

func (e *FatalImportError) Error() string {
	switch {
	case e.Table == "":
		return fmt.Sprintf("import failed: %v", e.Err)
	case e.Line > 0:
		return fmt.Sprintf("import of %s failed at line %d: %v", e.Table, e.Line, e.Err)
	default:
		return fmt.Sprintf("import of %s failed: %v", e.Table, e.Err)
	}
}

func (e *FatalImportError) Unwrap() error {
	return e.Err
}
