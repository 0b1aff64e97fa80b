// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package directory

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

const (
	// UserConfigPathEnv if set, will load the user config from that path.
	UserConfigPathEnv = "ATCOLLECT_USER_CONFIG_PATH"
	// PortEnv if set, is used as the default serial port.
	PortEnv = "ATCOLLECT_PORT"

	// PortCfgKey holds the port selected with 'atcollect set-port'.
	PortCfgKey = "port"
	// AnalyticsCfgKey holds the analytics.Config.
	AnalyticsCfgKey = "analytics"
)

func GetUserConfigPath() (string, error) {
	if path, ok := os.LookupEnv(UserConfigPathEnv); ok {
		return path, nil
	}

	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homedir, ".config", "atcollect", "config.yaml"), nil
}

func GetUserConfig() (*viper.Viper, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config path: %w", err)
	}

	cfg := viper.New()
	cfg.SetConfigType("yaml")
	cfg.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := cfg.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read user config: %w", err)
		}
	}
	return cfg, nil
}

func WriteConfig(cfg *viper.Viper) error {
	file := cfg.ConfigFileUsed()
	dir := filepath.Dir(file)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpFile := filepath.Join(filepath.Dir(file), ".config.tmp.yaml")
	if err := cfg.WriteConfigAs(tmpFile); err != nil {
		return err
	}
	defer os.Remove(tmpFile)

	return os.Rename(tmpFile, file)
}

// DefaultPort returns the port to use when none is given on the command
// line: PortEnv, then the stored port, then "".
func DefaultPort() string {
	if port, ok := os.LookupEnv(PortEnv); ok {
		return port
	}
	cfg, err := GetUserConfig()
	if err != nil {
		return ""
	}
	return cfg.GetString(PortCfgKey)
}

// DeviceDir is the directory where serial device nodes appear, or "" if the
// platform has none.
func DeviceDir() string {
	if runtime.GOOS == "windows" {
		return ""
	}
	return "/dev"
}
