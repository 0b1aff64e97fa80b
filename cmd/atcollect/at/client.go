// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package at

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultMaxResponse bounds the echo and reply lines when no
	// WithMaxResponse option is given. Output drained after a reply is not
	// bounded.
	DefaultMaxResponse = 512

	// pollTimeout is the read timeout used in blocking mode. Reads wake up at
	// this rate to check for cancellation.
	pollTimeout = 100 * time.Millisecond
	// idleDelay is the pause after an empty read in non-blocking mode.
	idleDelay = 10 * time.Millisecond
)

// Client runs command/reply exchanges with a module over a Transport.
// A Client is not safe for concurrent use.
type Client struct {
	transport   Transport
	logger      *slog.Logger
	maxResponse int
	blocking    bool
	closed      bool

	buf      []byte
	pos, end int
}

type Option func(*Client)

// WithMaxResponse sets the largest line the client accepts.
func WithMaxResponse(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponse = n
		}
	}
}

// WithLogger sets the logger that receives the raw exchange at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(transport Transport, opts ...Option) *Client {
	c := &Client{
		transport:   transport,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxResponse: DefaultMaxResponse,
		buf:         make([]byte, 256),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send writes cmd to the module verbatim. No reply is read.
func (c *Client) Send(cmd string) error {
	if c.closed {
		return ErrClosed
	}
	c.logger.Debug("send", "command", cmd)
	if _, err := io.WriteString(c.transport, cmd); err != nil {
		return fmt.Errorf("failed to send %q: %w", strings.TrimSpace(cmd), err)
	}
	return nil
}

// SetBlocking selects how reads wait for data. In blocking mode a read waits
// for the module, in non-blocking mode it polls. Both modes give up once
// the context of the running exchange is done.
func (c *Client) SetBlocking(blocking bool) error {
	if c.closed {
		return ErrClosed
	}
	timeout := time.Duration(0)
	if blocking {
		timeout = pollTimeout
	}
	if err := c.transport.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set read timeout: %w", err)
	}
	c.blocking = blocking
	return nil
}

// Clear drops everything the module sent so far, both in the driver and in
// the client's own buffer.
func (c *Client) Clear() error {
	if c.closed {
		return ErrClosed
	}
	c.pos, c.end = 0, 0
	if err := c.transport.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to clear input buffer: %w", err)
	}
	return nil
}

// SendCommandAndReadLine runs a single exchange: it sends cmd, checks the
// echo, reads the reply line and drains the rest of the response up to the
// "OK" terminator. The returned string is the reply with prefix removed, or
// an "Invalid reply (...)" marker if the prefix was missing.
//
// An echo that differs from cmd returns an *EchoError before any reply is
// read.
func (c *Client) SendCommandAndReadLine(ctx context.Context, cmd string, prefix string) (string, error) {
	if err := c.Send(cmd); err != nil {
		return "", err
	}

	name := strings.TrimSpace(cmd)
	echo, err := c.readUntil(ctx, LineEnd)
	if err != nil {
		return "", fmt.Errorf("failed to read echo of %s: %w", name, err)
	}
	if echo != cmd {
		return "", &EchoError{Sent: cmd, Echo: echo}
	}

	line, err := c.readUntil(ctx, LineEnd)
	if err == nil && line == LineEnd {
		// Some firmwares put an empty line before the payload.
		line, err = c.readUntil(ctx, LineEnd)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read reply to %s: %w", name, err)
	}
	c.logger.Debug("reply", "command", name, "line", line)

	if err := c.drain(ctx); err != nil {
		return "", fmt.Errorf("failed to read end of response to %s: %w", name, err)
	}

	return ParseReply(line, prefix), nil
}

// Query runs q and returns the parsed value.
func (c *Client) Query(ctx context.Context, q Query) (string, error) {
	return c.SendCommandAndReadLine(ctx, q.Command, q.Prefix)
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	return c.transport.Close()
}

// readUntil reads until the accumulated data ends with marker.
func (c *Client) readUntil(ctx context.Context, marker string) (string, error) {
	var acc []byte
	for {
		b, err := c.readByte(ctx)
		if err != nil {
			return string(acc), err
		}
		acc = append(acc, b)
		if bytes.HasSuffix(acc, []byte(marker)) {
			return string(acc), nil
		}
		if len(acc) >= c.maxResponse {
			return string(acc), ErrLineTooLong
		}
	}
}

// drain discards input up to and including the terminator. Unsolicited
// output before the terminator can be of any length.
func (c *Client) drain(ctx context.Context) error {
	tail := make([]byte, 0, len(Terminator))
	for {
		b, err := c.readByte(ctx)
		if err != nil {
			return err
		}
		if len(tail) == len(Terminator) {
			copy(tail, tail[1:])
			tail = tail[:len(tail)-1]
		}
		tail = append(tail, b)
		if string(tail) == Terminator {
			return nil
		}
	}
}

func (c *Client) readByte(ctx context.Context) (byte, error) {
	if c.closed {
		return 0, ErrClosed
	}
	for c.pos >= c.end {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := c.transport.Read(c.buf)
		if err != nil {
			return 0, err
		}
		c.pos, c.end = 0, n
		if n == 0 && !c.blocking {
			select {
			case <-ctx.Done():
			case <-time.After(idleDelay):
			}
		}
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}
