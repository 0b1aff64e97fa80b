// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/toitlang/atcollect/cmd/atcollect/directory"
	"github.com/toitlang/atcollect/cmd/atcollect/hotplug"
)

func PortsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ports",
		Short:        "List the serial ports that are currently present",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}

			ports, err := hotplug.SerialEnumerator{All: all}.Ports()
			if err != nil {
				return err
			}
			return printPorts(cmd.OutOrStdout(), output, ports)
		},
	}

	cmd.Flags().Bool("all", false, "if set, will show all available ports")
	cmd.Flags().StringP("output", "o", "", "print the ports as json, yaml or short")
	return cmd
}

type portList hotplug.Snapshot

func (l portList) Elements() []Short {
	res := make([]Short, len(l))
	for i, p := range l {
		res[i] = p
	}
	return res
}

func printPorts(w io.Writer, output string, ports hotplug.Snapshot) error {
	if output != "" {
		enc, err := newEncoder(output, w)
		if err != nil {
			return err
		}
		if strings.EqualFold(output, "short") {
			return enc.Encode(portList(ports))
		}
		return enc.Encode(ports)
	}

	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports found.")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}

func SetPortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "set-port",
		Short:        "Select the serial port you want to use",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}

			port, err := pickPort(hotplug.SerialEnumerator{All: all})
			if err != nil {
				return err
			}

			cfg, err := directory.GetUserConfig()
			if err != nil {
				return err
			}
			cfg.Set(directory.PortCfgKey, port.Path)
			if err := directory.WriteConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default port set to '%s'\n", port.Path)
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "if set, will show all available ports")
	return cmd
}

func pickPort(e hotplug.Enumerator) (hotplug.Port, error) {
	ports, err := e.Ports()
	if err != nil {
		return hotplug.Port{}, err
	}
	if len(ports) == 0 {
		return hotplug.Port{}, fmt.Errorf("no serial ports detected. Is the device connected?")
	}

	prompt := promptui.Select{
		Label: "Choose what serial port you want to use",
		Items: ports,
		Templates: &promptui.SelectTemplates{
			Active:   "▸ {{ .Path | cyan }} {{ .Name | faint }}",
			Inactive: "  {{ .Path }} {{ .Name | faint }}",
			Selected: "Port: {{ .Path }}",
		},
	}

	i, _, err := prompt.Run()
	if err != nil {
		return hotplug.Port{}, fmt.Errorf("you didn't select anything")
	}

	return ports[i], nil
}

// requirePort returns the given port or fails with a hint about set-port.
func requirePort(cmd *cobra.Command) (string, error) {
	port, err := cmd.Flags().GetString("port")
	if err != nil {
		return "", err
	}
	if port == "" {
		return "", fmt.Errorf("no port given. Use --port, $%s or 'atcollect set-port'", directory.PortEnv)
	}
	return port, nil
}
