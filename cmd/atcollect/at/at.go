// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package at talks to LoRaWAN radio modules over their line based AT command
// interface. Commands and replies are terminated by '\n', the module echoes
// every command back before replying, and a response ends with "OK\n".
package at

import "strings"

const (
	// LineEnd terminates every command, echo and reply line.
	LineEnd = "\n"
	// Terminator marks the end of a response.
	Terminator = "OK" + LineEnd

	// CmdEchoOn turns on command echo. The client relies on the echo to
	// validate every exchange.
	CmdEchoOn = "ATE" + LineEnd

	invalidReplyPrefix = "Invalid reply ("
)

// Query is a read-only AT command together with the prefix the module puts
// in front of the value it returns.
type Query struct {
	Label   string
	Command string
	Prefix  string
}

func newQuery(label string, name string) Query {
	return Query{
		Label:   label,
		Command: "AT+" + name + "=?" + LineEnd,
		Prefix:  "AT+" + name + "=",
	}
}

var (
	QueryVersion   = newQuery("Firmware version", "VER")
	QueryJoinEUI   = newQuery("Join EUI", "APPEUI")
	QueryDeviceEUI = newQuery("Device EUI", "DEVEUI")
	QueryAppKey    = newQuery("AppKey", "APPKEY")
)

// Queries returns the identity and credential queries in the order they are
// shown to the operator.
func Queries() []Query {
	return []Query{
		QueryVersion,
		QueryJoinEUI,
		QueryDeviceEUI,
		QueryAppKey,
	}
}

// ParseReply strips one trailing line end and the expected prefix from a
// reply line. A line without the prefix is not an error: the result is an
// "Invalid reply (<line>)" marker that can be shown as is.
func ParseReply(line string, prefix string) string {
	line = strings.TrimSuffix(line, LineEnd)
	if strings.HasPrefix(line, prefix) {
		return line[len(prefix):]
	}
	return invalidReplyPrefix + line + ")"
}

// IsInvalidReply reports whether value is the marker produced by ParseReply
// for a reply without the expected prefix.
func IsInvalidReply(value string) bool {
	return strings.HasPrefix(value, invalidReplyPrefix) && strings.HasSuffix(value, ")")
}
