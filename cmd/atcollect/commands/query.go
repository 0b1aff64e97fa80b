// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toitlang/atcollect/cmd/atcollect/at"
	"github.com/toitlang/atcollect/cmd/atcollect/directory"
)

func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <command> [prefix]",
		Short: "Send one AT command to a device and print its reply",
		Long: "Send one AT command to a device and print its reply.\n\n" +
			"The command may be given in full ('AT+DEVEUI=?') or by name ('DEVEUI').\n" +
			"The reply prefix defaults to the command up to and including '='.",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := requirePort(cmd)
			if err != nil {
				return err
			}
			logger, err := loggerFromFlags(cmd)
			if err != nil {
				return err
			}

			command := normalizeCommand(args[0])
			prefix := defaultPrefix(command)
			if len(args) == 2 {
				prefix = args[1]
			}

			transport, err := openDevice(port, defaultBaudRate)
			if err != nil {
				return err
			}
			client := at.NewClient(transport, at.WithLogger(logger))
			defer client.Close()

			ctx := cmd.Context()
			if err := handshake(ctx, client, handshakeDelay); err != nil {
				return err
			}

			value, err := client.SendCommandAndReadLine(ctx, command+at.LineEnd, prefix)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			if at.IsInvalidReply(value) {
				return fmt.Errorf("reply did not start with '%s'", prefix)
			}
			return nil
		},
	}

	cmd.Flags().StringP("port", "p", directory.DefaultPort(), "port of the device")
	return cmd
}

// normalizeCommand turns a bare command name like "DEVEUI" into the read
// form "AT+DEVEUI=?". Full commands are kept as given.
func normalizeCommand(command string) string {
	command = strings.TrimSpace(command)
	if !strings.HasPrefix(strings.ToUpper(command), "AT") {
		command = "AT+" + command
	}
	if strings.HasPrefix(command, "AT+") && !strings.Contains(command, "=") {
		command += "=?"
	}
	return command
}

func defaultPrefix(command string) string {
	if i := strings.Index(command, "="); i >= 0 {
		return command[:i+1]
	}
	return command
}
