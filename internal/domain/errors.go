package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks lookups for records that do not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput marks requests rejected by validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRule marks rule configurations the engine cannot evaluate,
	// such as a weight formula that does not compile.
	ErrInvalidRule = errors.New("invalid rule")
)

func fmtInvalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
