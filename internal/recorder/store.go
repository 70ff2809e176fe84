// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package recorder

import (
	"context"
	"time"

	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

// DefaultStoreTimeout bounds every store call when StoreConfig.Timeout is zero.
const DefaultStoreTimeout = 5 * time.Second

// Store is the time-series backend the recorder writes to.
// Writes are scoped to the database last passed to SelectDatabase.
type Store interface {
	Ping(ctx context.Context) error
	ListDatabases(ctx context.Context) ([]string, error)
	CreateDatabase(ctx context.Context, name string) error
	SelectDatabase(name string) error
	WritePoint(ctx context.Context, rec navdata.Record) error
	Close() error
}

// StoreConfig is read once at construction.
type StoreConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Database string
	Timeout  time.Duration
}

func (c StoreConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultStoreTimeout
	}
	return c.Timeout
}
