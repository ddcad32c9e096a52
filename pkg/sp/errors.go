// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Rene Varlow, WPPS Project

package sp

import (
	"errors"
	"fmt"
)

// ErrShortBody reports a command body shorter than its layout requires.
var ErrShortBody = errors.New("body too short")

// ErrBodyTooLong reports a frame header announcing a body above
// MaxBodyLength. The stream has no sync marker, so this usually means the
// decoder lost frame alignment.
var ErrBodyTooLong = errors.New("body length above limit")

// StatusError represents an error status returned by the daemon.
type StatusError struct {
	Status uint8
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("daemon returned %s (0x%02X)", FormatStatus(e.Status), e.Status)
}

// AsStatusError returns the StatusError wrapped in err, if any.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
