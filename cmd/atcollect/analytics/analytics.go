// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

// Package analytics reports anonymous usage of atcollect. Reporting is off
// until it is enabled with 'atcollect config analytics enable', and it needs
// a write key, either built in or stored in the user config.
package analytics

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/analytics-go/v3"
	"github.com/spf13/viper"
	"github.com/toitlang/atcollect/cmd/atcollect/directory"
)

// Set with -ldflags "-X github.com/toitlang/atcollect/cmd/atcollect/analytics.writeKey=...".
var (
	writeKey = ""
	endpoint = ""
)

type Config struct {
	Disabled bool   `mapstructure:"disabled" yaml:"disabled" json:"disabled"`
	ClientID string `mapstructure:"cid" yaml:"cid" json:"cid"`
	WriteKey string `mapstructure:"writekey" yaml:"writekey,omitempty" json:"writekey,omitempty"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// Load reads the analytics settings from cfg. Without an explicit
// 'disabled: false' reporting stays disabled.
func Load(cfg *viper.Viper) (Config, error) {
	res := Config{Disabled: true}
	if cfg.IsSet(directory.AnalyticsCfgKey) {
		if err := cfg.UnmarshalKey(directory.AnalyticsCfgKey, &res); err != nil {
			return Config{Disabled: true}, fmt.Errorf("invalid analytics config: %w", err)
		}
		if !cfg.IsSet(directory.AnalyticsCfgKey + ".disabled") {
			res.Disabled = true
		}
	}
	if res.WriteKey == "" {
		res.WriteKey = writeKey
	}
	if res.Endpoint == "" {
		res.Endpoint = endpoint
	}
	return res, nil
}

// SetEnabled stores the reporting choice in cfg. Enabling assigns a client id
// if there is none yet.
func SetEnabled(cfg *viper.Viper, enabled bool) {
	cfg.Set(directory.AnalyticsCfgKey+".disabled", !enabled)
	if enabled && cfg.GetString(directory.AnalyticsCfgKey+".cid") == "" {
		cfg.Set(directory.AnalyticsCfgKey+".cid", uuid.New().String())
	}
}

// GetClient returns a client for the current user config. It returns a
// client that drops every message when reporting is disabled or no write
// key is known. The user config is never written.
func GetClient() (Client, error) {
	cfg, err := directory.GetUserConfig()
	if err != nil {
		return nil, err
	}
	conf, err := Load(cfg)
	if err != nil {
		return nil, err
	}
	if conf.Disabled || conf.WriteKey == "" || conf.ClientID == "" {
		return Noop(), nil
	}

	client, err := analytics.NewWithConfig(conf.WriteKey, analytics.Config{
		Interval:  time.Millisecond,
		BatchSize: 1,
		Endpoint:  conf.Endpoint,
		Logger:    noopLogger{},
	})
	if err != nil {
		return nil, err
	}

	return &proxyClient{
		identity: &Identity{AnonymousID: conf.ClientID},
		Client:   client,
	}, nil
}

type noopLogger struct{}

func (noopLogger) Logf(format string, args ...interface{})   {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

type Client interface {
	analytics.Client
	Disable(bool)
}

type proxyClient struct {
	disabled bool
	analytics.Client
	identity *Identity
}

func (c *proxyClient) Disable(b bool) {
	c.disabled = b
}

func (c *proxyClient) Enqueue(msg analytics.Message) error {
	if c.disabled {
		return nil
	}

	return c.Client.Enqueue(c.identity.Populate(msg))
}

// Identity fills in the anonymous id of this installation.
type Identity struct {
	AnonymousID string
}

func (i *Identity) Populate(msg analytics.Message) analytics.Message {
	switch t := msg.(type) {
	case analytics.Page:
		if t.AnonymousId == "" {
			t.AnonymousId = i.AnonymousID
		}
		return t
	case analytics.Track:
		if t.AnonymousId == "" {
			t.AnonymousId = i.AnonymousID
		}
		return t
	default:
		return msg
	}
}

// Noop returns a client that drops every message.
func Noop() Client {
	return noopClient{}
}

type noopClient struct{}

func (noopClient) Enqueue(analytics.Message) error { return nil }
func (noopClient) Close() error                    { return nil }
func (noopClient) Disable(bool)                    {}
