// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package at

//go:generate mockgen -source=transport.go -destination=mock_transport_test.go -package=at

import (
	"io"
	"time"
)

// Transport is an open connection to a module. It is the subset of
// go.bug.st/serial.Port the client needs.
//
// A Read that hits the read timeout returns 0 bytes and a nil error.
type Transport interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}
