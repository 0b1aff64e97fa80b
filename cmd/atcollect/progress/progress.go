// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package progress renders the console feedback shown while atcollect waits
// for a device: a fixed-width percentage bar and a small spinner.
package progress

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

const barWidth = 40

// Bar draws a 40 cell progress bar followed by a right-aligned percentage.
// While done < total the line ends with a carriage return so the next call
// overwrites it. Once done >= total the line is terminated with a newline.
func Bar(w io.Writer, done, total int) error {
	ratio := 1.0
	if total > 0 {
		ratio = math.Max(0, math.Min(1, float64(done)/float64(total)))
	}
	filled := int(math.Round(ratio * barWidth))
	percent := int(math.Round(ratio * 100))

	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(strings.Repeat("#", filled))
	sb.WriteString(strings.Repeat(" ", barWidth-filled))
	fmt.Fprintf(&sb, "] %3d%%", percent)
	if done >= total {
		sb.WriteByte('\n')
	} else {
		sb.WriteByte('\r')
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Wait blocks for steps*interval, redrawing the bar after every step.
func Wait(ctx context.Context, w io.Writer, steps int, interval time.Duration) error {
	if steps <= 0 {
		return nil
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; i < steps; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := Bar(w, i+1, steps); err != nil {
			return err
		}
	}
	return nil
}
