// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/nav_recorder/internal/app"
)

func main() {
	var opts app.Options

	cmd := &cobra.Command{
		Use:           "console_mqtt",
		Short:         "Print navigation events from MQTT",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.Setup(os.Stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting nav-recorder console (MQTT subscriber)")
			return app.RunConsoleMQTT(ctx, cfg, os.Stdout, logger)
		},
	}
	opts.AddFlags(cmd)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
