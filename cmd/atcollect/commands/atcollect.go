// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"
	"runtime"

	segment "github.com/segmentio/analytics-go/v3"
	"github.com/spf13/cobra"
	"github.com/toitlang/atcollect/cmd/atcollect/analytics"
)

type ctxKey string

const (
	ctxKeyInfo ctxKey = "info"
)

type Info struct {
	Version string `mapstructure:"version" yaml:"version" json:"version"`
	Date    string `mapstructure:"date" yaml:"date" json:"date"`
}

func SetInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, ctxKeyInfo, info)
}

func GetInfo(ctx context.Context) Info {
	if info, ok := ctx.Value(ctxKeyInfo).(Info); ok {
		return info
	}
	return Info{Version: "development"}
}

func AtCollectCmd(info Info, isReleaseBuild bool) *cobra.Command {
	analyticsClient, err := analytics.GetClient()
	if err != nil {
		analyticsClient = analytics.Noop()
	}

	cmd := &cobra.Command{
		Use:   "atcollect",
		Short: "Read the identity of an AT command LoRaWAN module",
		Long: "atcollect waits for a LoRaWAN module to be plugged in over USB, talks to it with\n" +
			"AT commands, and prints its firmware version, Join EUI, Device EUI and AppKey.\n\n" +
			"Without a subcommand it runs one collection session.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runCollect,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			properties := segment.Properties{
				"atcollect": true,
				"command":   cmd.UseLine(),
				"platform":  runtime.GOOS,
			}

			if isReleaseBuild {
				properties.Set("version", info.Version)
			} else {
				properties.Set("version", "development")
			}

			go analyticsClient.Enqueue(segment.Page{
				Name:       "CLI Execute",
				Properties: properties,
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			analyticsClient.Close()
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "log the exchange with the device to stderr")
	addCollectFlags(cmd.Flags())

	cmd.AddCommand(
		PortsCmd(),
		SetPortCmd(),
		QueryCmd(),
		MonitorCmd(),
		ConfigCmd(),
		VersionCmd(info, isReleaseBuild),
	)
	return cmd
}
