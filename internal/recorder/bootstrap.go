// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// bootstrapStore makes sure database exists on the store and binds all later
// writes to it. Every step is fatal; nothing is retried.
func bootstrapStore(ctx context.Context, store Store, cfg StoreConfig, logger *slog.Logger) error {
	if err := withTimeout(ctx, cfg.timeout(), store.Ping); err != nil {
		return fmt.Errorf("connect to store %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	var databases []string
	err := withTimeout(ctx, cfg.timeout(), func(ctx context.Context) error {
		var err error
		databases, err = store.ListDatabases(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("list databases: %w", err)
	}

	if !slices.Contains(databases, cfg.Database) {
		logger.Info("creating database", "database", cfg.Database)
		err := withTimeout(ctx, cfg.timeout(), func(ctx context.Context) error {
			return store.CreateDatabase(ctx, cfg.Database)
		})
		if err != nil {
			return fmt.Errorf("create database %q: %w", cfg.Database, err)
		}
	}

	if err := store.SelectDatabase(cfg.Database); err != nil {
		return fmt.Errorf("select database %q: %w", cfg.Database, err)
	}
	logger.Info("store ready", "host", cfg.Host, "port", cfg.Port, "database", cfg.Database)
	return nil
}

func withTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
