package main

import (
	"errors"

	"psgc_api_go/services"
)

// Process exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitNotFound    = 3
	exitDatabase    = 4
	exitImportFatal = 5
)

// cliError attaches an exit code to an error
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }

func (e *cliError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// exitCode maps an error returned by a command to the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}

	var fatal *services.FatalImportError
	switch {
	case errors.Is(err, services.ErrInvalidOption):
		return exitUsage
	case errors.Is(err, services.ErrNotFound):
		return exitNotFound
	case errors.As(err, &fatal):
		return exitImportFatal
	}
	return exitError
}
