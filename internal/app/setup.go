// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/nav_recorder/internal/config"
	"github.com/relabs-tech/nav_recorder/internal/logging"
)

// DefaultConfigPath is where commands look for their config file.
const DefaultConfigPath = "recorder_config.txt"

// Options are the flags shared by all commands.
type Options struct {
	ConfigPath string
	LogLevel   string
}

// AddFlags registers --config and --log-level on cmd.
func (o *Options) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.ConfigPath, "config", "c", DefaultConfigPath, "path to the KEY=VALUE config file")
	cmd.Flags().StringVar(&o.LogLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
}

// Setup loads the config and builds the base logger writing to w.
func (o *Options) Setup(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	levelName := cfg.LogLevel
	if o.LogLevel != "" {
		levelName = o.LogLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(w, level), nil
}
