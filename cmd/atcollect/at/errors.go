// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package at

import (
	"errors"
	"fmt"
)

var (
	// ErrEchoMismatch is returned when the module does not echo back the
	// command it was sent. The link is considered broken and no reply is
	// read.
	ErrEchoMismatch = errors.New("invalid reply")

	// ErrLineTooLong is returned when a line, or the output drained up to the
	// terminator, exceeds the client's maximum response size.
	ErrLineTooLong = errors.New("response line too long")

	// ErrClosed is returned by operations on a closed Client.
	ErrClosed = errors.New("client closed")
)

// EchoError describes an echo that differs from the command sent.
type EchoError struct {
	Sent string
	Echo string
}

func (e *EchoError) Error() string {
	return fmt.Sprintf("invalid reply: sent %q but the device echoed %q", e.Sent, e.Echo)
}

func (e *EchoError) Is(target error) bool {
	return target == ErrEchoMismatch
}
