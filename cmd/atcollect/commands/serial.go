// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/toitlang/atcollect/cmd/atcollect/at"
	"go.bug.st/serial"
)

const (
	defaultBaudRate = 115200
	// handshakeDelay is the time the device gets to process ATE before its
	// output is cleared.
	handshakeDelay = 200 * time.Millisecond
)

func deviceMode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

func serialOpen(port string, mode *serial.Mode) (*serialPort, error) {
	dev, err := serial.Open(port, mode)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("the port '%s' was not found", port)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", port, err)
	}

	return &serialPort{Port: dev}, nil
}

// openDevice opens port with the settings of the LoRaWAN modules: 8 data
// bits, no parity, one stop bit.
func openDevice(port string, baud int) (at.Transport, error) {
	return serialOpen(port, deviceMode(baud))
}

type serialPort struct {
	serial.Port
	hasTimeout bool
}

func (s *serialPort) SetReadTimeout(t time.Duration) error {
	if err := s.Port.SetReadTimeout(t); err != nil {
		return err
	}
	s.hasTimeout = t != serial.NoTimeout
	return nil
}

// Read treats an empty read without a read timeout as a lost device. With a
// timeout an empty read only means no data arrived in time.
func (s *serialPort) Read(buf []byte) (n int, err error) {
	n, err = s.Port.Read(buf)
	if err == nil && n == 0 && !s.hasTimeout {
		return 0, io.ErrUnexpectedEOF
	}
	return n, err
}

// handshake turns on echo, lets the device settle and drops whatever it
// printed so far. Afterwards the client is ready for queries.
func handshake(ctx context.Context, client *at.Client, delay time.Duration) error {
	if err := client.Send(at.CmdEchoOn); err != nil {
		return err
	}
	if err := sleep(ctx, delay); err != nil {
		return err
	}
	if err := client.Clear(); err != nil {
		return err
	}
	return client.SetBlocking(true)
}
