// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/toitlang/atcollect/cmd/atcollect/directory"
)

func MonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "monitor",
		Short:        "Print the serial output of a device",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := requirePort(cmd)
			if err != nil {
				return err
			}

			baud, err := cmd.Flags().GetUint("baud")
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Starting serial monitor of port '%s' ...\n", port)
			dev, err := serialOpen(port, deviceMode(int(baud)))
			if err != nil {
				return err
			}
			defer dev.Close()

			return monitor(cmd.Context(), dev, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringP("port", "p", directory.DefaultPort(), "port to monitor")
	cmd.Flags().Uint("baud", defaultBaudRate, "the baud rate for serial monitoring")
	return cmd
}

// monitor copies lines from r to w until r fails or ctx is done. r is closed
// when ctx is done to unblock the pending read.
func monitor(ctx context.Context, r io.ReadCloser, w io.Writer) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}
