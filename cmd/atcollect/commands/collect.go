// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/coreos/go-semver/semver"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/toitlang/atcollect/cmd/atcollect/at"
	"github.com/toitlang/atcollect/cmd/atcollect/directory"
	"github.com/toitlang/atcollect/cmd/atcollect/hotplug"
	"github.com/toitlang/atcollect/cmd/atcollect/progress"
)

const (
	settleSteps    = 100
	settleInterval = 200 * time.Millisecond
	spinnerDivisor = 10
)

// DeviceInfo is the identity read from a device.
type DeviceInfo struct {
	Port            string `yaml:"port" json:"port"`
	FirmwareVersion string `yaml:"firmwareVersion" json:"firmwareVersion"`
	JoinEUI         string `yaml:"joinEUI" json:"joinEUI"`
	DeviceEUI       string `yaml:"deviceEUI" json:"deviceEUI"`
	AppKey          string `yaml:"appKey" json:"appKey"`
}

func (d *DeviceInfo) set(q at.Query, value string) {
	switch q {
	case at.QueryVersion:
		d.FirmwareVersion = value
	case at.QueryJoinEUI:
		d.JoinEUI = value
	case at.QueryDeviceEUI:
		d.DeviceEUI = value
	case at.QueryAppKey:
		d.AppKey = value
	}
}

type shortValue string

func (v shortValue) Short() string { return string(v) }

func (d DeviceInfo) Elements() []Short {
	return []Short{
		shortValue(d.FirmwareVersion),
		shortValue(d.JoinEUI),
		shortValue(d.DeviceEUI),
		shortValue(d.AppKey),
	}
}

func addCollectFlags(flags *pflag.FlagSet) {
	flags.StringP("port", "p", "", "use this port instead of waiting for a device to be plugged in")
	flags.Bool("all", false, "if set, consider all serial ports when waiting for a device")
	flags.Duration("timeout", 0, "give up waiting for a device after this long (0 waits forever)")
	flags.Duration("poll-interval", hotplug.DefaultInterval, "time between two scans of the serial ports")
	flags.Int("settle-steps", settleSteps, "number of steps of the device initialization wait")
	flags.Duration("settle-interval", settleInterval, "duration of one step of the device initialization wait")
	flags.StringP("output", "o", "", "print the result as json, yaml or short instead of labeled lines")
	flags.String("min-firmware", "", "warn if the device firmware is older than this version")
	flags.Bool("no-wait", false, "exit without waiting for enter")
}

func runCollect(cmd *cobra.Command, _ []string) error {
	c, err := newCollector(cmd)
	if err != nil {
		return err
	}

	info := GetInfo(cmd.Context())
	if err := c.run(cmd.Context(), info.Version); err != nil {
		if errors.Is(err, at.ErrEchoMismatch) {
			fmt.Fprintln(c.errOut, "Invalid reply")
			c.logger.Debug("echo mismatch", "error", err)
			// We just printed the error.
			cmd.SilenceErrors = true
		}
		return err
	}
	return nil
}

type collector struct {
	out    io.Writer
	errOut io.Writer
	in     io.Reader
	logger *slog.Logger

	enumerator  hotplug.Enumerator
	open        func(port string) (at.Transport, error)
	watchDir    string
	interactive bool

	port           string
	timeout        time.Duration
	pollInterval   time.Duration
	settleSteps    int
	settleInterval time.Duration
	handshakeDelay time.Duration
	output         string
	minFirmware    *semver.Version
	noWait         bool
}

func newCollector(cmd *cobra.Command) (*collector, error) {
	logger, err := loggerFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	port, err := flags.GetString("port")
	if err != nil {
		return nil, err
	}
	all, err := flags.GetBool("all")
	if err != nil {
		return nil, err
	}
	timeout, err := flags.GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	pollInterval, err := flags.GetDuration("poll-interval")
	if err != nil {
		return nil, err
	}
	steps, err := flags.GetInt("settle-steps")
	if err != nil {
		return nil, err
	}
	interval, err := flags.GetDuration("settle-interval")
	if err != nil {
		return nil, err
	}
	output, err := flags.GetString("output")
	if err != nil {
		return nil, err
	}
	if output != "" {
		if _, err := newEncoder(output, io.Discard); err != nil {
			return nil, err
		}
	}
	minFirmware, err := flags.GetString("min-firmware")
	if err != nil {
		return nil, err
	}
	noWait, err := flags.GetBool("no-wait")
	if err != nil {
		return nil, err
	}

	c := &collector{
		out:         cmd.OutOrStdout(),
		errOut:      cmd.ErrOrStderr(),
		in:          cmd.InOrStdin(),
		logger:      logger,
		enumerator:  hotplug.SerialEnumerator{All: all},
		watchDir:    directory.DeviceDir(),
		interactive: isTerminal(os.Stdout),
		open: func(port string) (at.Transport, error) {
			return openDevice(port, defaultBaudRate)
		},
		port:           port,
		timeout:        timeout,
		pollInterval:   pollInterval,
		settleSteps:    steps,
		settleInterval: interval,
		handshakeDelay: handshakeDelay,
		output:         output,
		noWait:         noWait,
	}
	if minFirmware != "" {
		if c.minFirmware, err = parseFirmwareVersion(minFirmware); err != nil {
			return nil, fmt.Errorf("invalid --min-firmware: %w", err)
		}
	}
	return c, nil
}

func (c *collector) run(ctx context.Context, version string) error {
	c.banner(version)

	port := c.port
	if port == "" {
		p, err := c.awaitDevice(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "\nConnecting to %s (%s)...\n", p.Name, p.Path)
		port = p.Path

		fmt.Fprintln(c.out, "Waiting device initialization (1/2)...")
		if err := c.settle(ctx); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(c.out, "Connecting to %s...\n", port)
	}

	transport, err := c.open(port)
	if err != nil {
		return err
	}
	client := at.NewClient(transport, at.WithLogger(c.logger))
	defer client.Close()

	fmt.Fprintln(c.out, "Waiting device initialization (2/2)...")
	if err := handshake(ctx, client, c.handshakeDelay); err != nil {
		return err
	}

	info := DeviceInfo{Port: port}
	for _, q := range at.Queries() {
		value, err := client.Query(ctx, q)
		if err != nil {
			return err
		}
		info.set(q, value)
		if c.output == "" {
			c.printField(q.Label, value)
		}
	}

	if c.output != "" {
		enc, err := newEncoder(c.output, c.out)
		if err != nil {
			return err
		}
		if err := enc.Encode(info); err != nil {
			return err
		}
	}

	c.checkFirmware(info.FirmwareVersion)

	if !c.noWait {
		fmt.Fprintln(c.out, "Press enter to close the program")
		if _, err := ReadLine(c.in); err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}

func (c *collector) banner(version string) {
	title := "=== AtSensorDataCollector " + version + " ==="
	line := strings.Repeat("=", len(title))
	fmt.Fprintf(c.out, "%s\n%s\n%s\n\n", line, title, line)
}

func (c *collector) awaitDevice(ctx context.Context) (hotplug.Port, error) {
	before, err := c.enumerator.Ports()
	if err != nil {
		return hotplug.Port{}, err
	}

	fmt.Fprintln(c.out, "Please, connect the usb device")

	spinner := progress.NewSpinner(spinnerDivisor)
	detector := hotplug.Detector{
		Enumerator: c.enumerator,
		Interval:   c.pollInterval,
		WatchDir:   c.watchDir,
		Logger:     c.logger,
		OnPoll: func() {
			if c.interactive {
				spinner.Tick(c.out)
			}
		},
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return detector.Wait(ctx, before)
}

func (c *collector) settle(ctx context.Context) error {
	if c.interactive {
		return progress.Wait(ctx, c.out, c.settleSteps, c.settleInterval)
	}
	if err := progress.Wait(ctx, io.Discard, c.settleSteps, c.settleInterval); err != nil {
		return err
	}
	return progress.Bar(c.out, c.settleSteps, c.settleSteps)
}

func (c *collector) printField(label string, value string) {
	if at.IsInvalidReply(value) {
		value = color.New(color.FgRed).Sprint(value)
	}
	fmt.Fprintf(c.out, "  - %s: %s\n", label, value)
}

func (c *collector) checkFirmware(reported string) {
	if c.minFirmware == nil {
		return
	}
	warn := color.New(color.FgYellow)
	v, err := parseFirmwareVersion(reported)
	if err != nil {
		warn.Fprintf(c.out, "Could not check the firmware version: %v\n", err)
		return
	}
	if v.LessThan(*c.minFirmware) {
		warn.Fprintf(c.out, "Firmware %s is older than the required %s\n", v, c.minFirmware)
	}
}

var firmwareVersionRegexp = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// parseFirmwareVersion finds the first dotted version number in s, as in
// "1.2.3", "v1.2" or "RUI_4.0.5_RAK3172-E".
func parseFirmwareVersion(s string) (*semver.Version, error) {
	m := firmwareVersionRegexp.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("no version number in '%s'", s)
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	return semver.NewVersion(m[1] + "." + m[2] + "." + patch)
}
