// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package hotplug

import (
	"fmt"
	"runtime"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Port describes one serial port as seen by the enumerator. Ports are
// identified by Path; Name is only for display.
type Port struct {
	Path         string `yaml:"path" json:"path"`
	Name         string `yaml:"name" json:"name"`
	IsUSB        bool   `yaml:"usb" json:"usb"`
	VID          string `yaml:"vid,omitempty" json:"vid,omitempty"`
	PID          string `yaml:"pid,omitempty" json:"pid,omitempty"`
	SerialNumber string `yaml:"serialNumber,omitempty" json:"serialNumber,omitempty"`
}

func (p Port) String() string {
	if p.Name == "" || p.Name == p.Path {
		return p.Path
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Path)
}

func (p Port) Short() string {
	return p.Path
}

// Snapshot is the list of ports present at one instant.
type Snapshot []Port

// Enumerator lists the serial ports currently present.
type Enumerator interface {
	Ports() (Snapshot, error)
}

// EnumeratorFunc adapts a function to the Enumerator interface.
type EnumeratorFunc func() (Snapshot, error)

func (f EnumeratorFunc) Ports() (Snapshot, error) {
	return f()
}

// SerialEnumerator lists the ports known to the operating system. Unless All
// is set, ports that are unlikely to be a USB serial adapter are dropped.
type SerialEnumerator struct {
	All bool
}

func (e SerialEnumerator) Ports() (Snapshot, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	ports := make(Snapshot, 0, len(details))
	for _, d := range details {
		ports = append(ports, fromDetails(d))
	}
	if !e.All {
		ports = FilterPorts(runtime.GOOS, ports)
	}
	return ports, nil
}

func fromDetails(d *enumerator.PortDetails) Port {
	p := Port{
		Path:         d.Name,
		Name:         d.Product,
		IsUSB:        d.IsUSB,
		VID:          d.VID,
		PID:          d.PID,
		SerialNumber: d.SerialNumber,
	}
	if p.Name == "" && p.IsUSB {
		p.Name = fmt.Sprintf("USB %s:%s", p.VID, p.PID)
	}
	if p.Name == "" {
		p.Name = p.Path
	}
	return p
}

// FilterPorts keeps the ports of goos that can be a USB serial adapter.
func FilterPorts(goos string, ports Snapshot) Snapshot {
	switch goos {
	case "darwin":
		return darwinFilterPorts(ports)
	case "linux":
		return linuxFilterPorts(ports)
	default:
		return ports
	}
}

func darwinFilterPorts(ports Snapshot) Snapshot {
	existing := map[string]struct{}{}
	for _, p := range ports {
		existing[p.Path] = struct{}{}
	}
	var res Snapshot
	for _, p := range ports {
		if strings.Contains(p.Path, "Bluetooth") {
			continue
		}
		if strings.HasPrefix(p.Path, "/dev/cu") {
			res = append(res, p)
		} else if strings.HasPrefix(p.Path, "/dev/tty") {
			candidate := "/dev/cu" + strings.TrimPrefix(p.Path, "/dev/tty")
			if _, exists := existing[candidate]; !exists {
				res = append(res, p)
			}
		}
	}
	return res
}

func linuxFilterPorts(ports Snapshot) Snapshot {
	var res Snapshot
	for _, p := range ports {
		if strings.Contains(p.Path, "tty") && (strings.Contains(p.Path, "USB") || strings.Contains(p.Path, "ACM")) {
			res = append(res, p)
		}
	}
	return res
}
