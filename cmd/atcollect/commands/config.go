// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toitlang/atcollect/cmd/atcollect/analytics"
	"github.com/toitlang/atcollect/cmd/atcollect/directory"
)

func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configure atcollect",
		Long:  "Configure the atcollect command line tool.",
	}

	cmd.AddCommand(
		ConfigAnalyticsCmd(),
		ConfigPortCmd(),
	)
	return cmd
}

func ConfigAnalyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Configure reporting of anonymous tool usage statistics",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Enable reporting of anonymous tool usage statistics",
			Args:  cobra.NoArgs,
			RunE:  configAnalytics(false),
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Disable reporting of anonymous tool usage statistics",
			Args:  cobra.NoArgs,
			RunE:  configAnalytics(true),
		},
	)
	return cmd
}

func ConfigPortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Show or clear the stored default port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := directory.GetUserConfig()
			if err != nil {
				return err
			}
			port := cfg.GetString(directory.PortCfgKey)
			if port == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No default port stored.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), port)
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Deletes the stored default port",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, err := directory.GetUserConfig()
				if err != nil {
					return err
				}
				cfg.Set(directory.PortCfgKey, "")
				return directory.WriteConfig(cfg)
			},
		},
	)
	return cmd
}

func configAnalytics(disable bool) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		cfg, err := directory.GetUserConfig()
		if err != nil {
			return err
		}

		analytics.SetEnabled(cfg, !disable)
		return directory.WriteConfig(cfg)
	}
}
