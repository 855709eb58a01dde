package main

import (
	"github.com/truwl/capanno-utils/internal/domain"
)

const (
	exitOK = iota
	exitFailure
	exitInvalidArgument
	exitAlreadyExists
	exitNotFound
)

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

func exitSilent(code int) error {
	return exitError{code: code, silent: true}
}

// exitCodeFor maps an error to the process exit status.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	code, _ := domain.CodeFrom(err)
	switch code {
	case domain.CodeInvalidArgument:
		return exitInvalidArgument
	case domain.CodeAlreadyExists:
		return exitAlreadyExists
	case domain.CodeNotFound:
		return exitNotFound
	default:
		return exitFailure
	}
}
