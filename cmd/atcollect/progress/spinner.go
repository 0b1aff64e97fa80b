// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package progress

import (
	"fmt"
	"io"
)

var tickSymbols = [...]rune{'\\', '|', '/', '-', '|'}

// Spinner is an indeterminate progress indicator. Every call to Tick advances
// it by one step, and each symbol is held for divisor steps. The zero value
// is a spinner with divisor 1.
type Spinner struct {
	index   int
	symbol  rune
	divisor int
}

func NewSpinner(divisor int) *Spinner {
	s := &Spinner{}
	s.Reset(divisor)
	return s
}

// Reset rewinds the spinner to its first symbol and forgets what was drawn
// last, so the next Tick always draws.
func (s *Spinner) Reset(divisor int) {
	if divisor < 1 {
		divisor = 1
	}
	s.index = 0
	s.symbol = 0
	s.divisor = divisor
}

// Tick advances the spinner and redraws it if the visible symbol changed.
// It reports whether anything was written.
func (s *Spinner) Tick(w io.Writer) (bool, error) {
	if s.divisor < 1 {
		s.divisor = 1
	}

	symbol := tickSymbols[s.index/s.divisor]
	s.index = (s.index + 1) % (len(tickSymbols) * s.divisor)
	if symbol == s.symbol {
		return false, nil
	}

	s.symbol = symbol
	_, err := fmt.Fprintf(w, "%c\r", symbol)
	return true, err
}
