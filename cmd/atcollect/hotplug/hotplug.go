// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package hotplug finds the serial port of a device that is plugged in while
// atcollect is running.
package hotplug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultInterval is the time between two enumerations of the ports.
const DefaultInterval = 200 * time.Millisecond

// DetectNew returns the port in after whose path is not in before. If no port
// or more than one port appeared, there is no winner and DetectNew returns
// false.
func DetectNew(before, after Snapshot) (Port, bool) {
	known := make(map[string]struct{}, len(before))
	for _, p := range before {
		known[p.Path] = struct{}{}
	}

	var winner Port
	found := 0
	for _, p := range after {
		if _, ok := known[p.Path]; !ok {
			winner = p
			found++
		}
	}
	if found != 1 {
		return Port{}, false
	}
	return winner, true
}

// Detector polls an Enumerator until a single new port shows up.
type Detector struct {
	Enumerator Enumerator
	// Interval between polls. Defaults to DefaultInterval.
	Interval time.Duration
	// OnPoll, if set, is called at the start of every poll.
	OnPoll func()
	// WatchDir, if set, is watched for newly created entries. A create event
	// triggers a poll right away instead of waiting for the next interval.
	WatchDir string
	Logger   *slog.Logger
}

// Wait polls until exactly one port that is not in before appears. Cycles
// without a winner, including ones where several ports appeared at once,
// become the baseline for the next poll.
//
// Enumeration errors are logged and the poll is retried with the same
// baseline. Wait returns when ctx is done.
func (d *Detector) Wait(ctx context.Context, before Snapshot) (Port, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	interval := d.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var watchErrors chan error
	if d.WatchDir != "" {
		watcher, err := d.watch()
		if err != nil {
			logger.Debug("hot-plug watch unavailable, polling only", "dir", d.WatchDir, "error", err)
		} else {
			defer watcher.Close()
			events = watcher.Events
			watchErrors = watcher.Errors
		}
	}

	for {
		select {
		case <-ctx.Done():
			return Port{}, fmt.Errorf("no new serial port detected: %w", ctx.Err())
		case <-ticker.C:
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			logger.Debug("device node created", "name", event.Name)
		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			logger.Debug("hot-plug watch error", "error", err)
			continue
		}

		if d.OnPoll != nil {
			d.OnPoll()
		}
		after, err := d.Enumerator.Ports()
		if err != nil {
			// Device attributes can be missing while a device is being
			// plugged in. Try again on the next poll.
			logger.Debug("failed to list serial ports", "error", err)
			continue
		}
		if winner, ok := DetectNew(before, after); ok {
			return winner, nil
		}
		before = after
	}
}

func (d *Detector) watch() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(d.WatchDir); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
