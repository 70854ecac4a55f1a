package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrSaveInFlight rejects a submission while the previous save is pending
	ErrSaveInFlight = errors.New("a save is already in progress")
	// ErrBlockCompleted rejects a submission on a block that is already done
	ErrBlockCompleted = errors.New("block is already completed")
	// ErrLogRejected marks a save the persistence layer answered with Success=false
	ErrLogRejected = errors.New("set log rejected")
)

// ValidationError is a user-facing input problem. No state changes when it is returned.
type ValidationError struct {
	Row     int // 1-based input row, 0 for block-level fields
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
