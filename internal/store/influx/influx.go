// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package influx adapts the InfluxDB 1.x HTTP API to the recorder store.
package influx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

var (
	// ErrNoDatabase is returned by WritePoint before SelectDatabase.
	ErrNoDatabase = errors.New("influx: no database selected")
	// ErrUnsupportedValue is returned for record values that are not a
	// number, string or bool.
	ErrUnsupportedValue = errors.New("influx: unsupported field value")
)

// ValueField is the name of the single field a sentence is written to.
const ValueField = "value"

// Config addresses one InfluxDB server.
type Config struct {
	Host    string
	Port    int
	// Timeout bounds every HTTP request, including Ping. The client has no
	// per-request context, so a zero value leaves store calls unbounded.
	Timeout time.Duration
}

// Client implements recorder.Store.
type Client struct {
	addr string
	c    client.Client

	mu       sync.RWMutex
	database string
}

// New builds a client for http://host:port. It does not contact the server.
func New(cfg Config) (*Client, error) {
	addr := "http://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:      addr,
		Timeout:   cfg.Timeout,
		UserAgent: "nav-recorder",
	})
	if err != nil {
		return nil, fmt.Errorf("influx client %s: %w", addr, err)
	}
	return &Client{addr: addr, c: c}, nil
}

// Ping checks that the server answers. The ctx deadline is passed on as the
// server-side wait_for_leader time; the request itself is bounded by
// Config.Timeout.
func (c *Client) Ping(ctx context.Context) error {
	timeout := time.Duration(0)
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}
	if _, _, err := c.c.Ping(timeout); err != nil {
		return fmt.Errorf("ping %s: %w", c.addr, err)
	}
	return nil
}

// ListDatabases runs SHOW DATABASES.
func (c *Client) ListDatabases(ctx context.Context) ([]string, error) {
	resp, err := c.query(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, res := range resp.Results {
		for _, row := range res.Series {
			for _, v := range row.Values {
				if len(v) == 0 {
					continue
				}
				if name, ok := v[0].(string); ok {
					names = append(names, name)
				}
			}
		}
	}
	return names, nil
}

// CreateDatabase runs CREATE DATABASE, which the server treats as a no-op for
// an existing database.
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	_, err := c.query(ctx, "CREATE DATABASE "+quoteIdent(name))
	return err
}

// SelectDatabase binds later writes to name.
func (c *Client) SelectDatabase(name string) error {
	if name == "" {
		return errors.New("influx: empty database name")
	}
	c.mu.Lock()
	c.database = name
	c.mu.Unlock()
	return nil
}

// Database returns the selected database.
func (c *Client) Database() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.database
}

// WritePoint writes rec as one point. The coordinate goes into the lat/lon
// tags and the sentence value into the "value" field.
func (c *Client) WritePoint(ctx context.Context, rec navdata.Record) error {
	db := c.Database()
	if db == "" {
		return ErrNoDatabase
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkValue(rec.Value); err != nil {
		return fmt.Errorf("%q record: %w", rec.Measurement, err)
	}

	pt, err := client.NewPoint(rec.Measurement, CoordinateTags(rec.Coordinate),
		map[string]interface{}{ValueField: rec.Value}, rec.Time)
	if err != nil {
		return fmt.Errorf("build point: %w", err)
	}
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: db})
	if err != nil {
		return fmt.Errorf("build batch: %w", err)
	}
	bp.AddPoint(pt)

	if err := c.c.Write(bp); err != nil {
		return fmt.Errorf("write to %s: %w", db, err)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.c.Close()
}

// query runs cmd. ctx is only checked before sending; the request is bounded
// by Config.Timeout.
func (c *Client) query(ctx context.Context, cmd string) (*client.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := c.c.Query(client.NewQuery(cmd, "", ""))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("%s: %w", cmd, err)
	}
	return resp, nil
}

// checkValue accepts the scalar types the line protocol can carry. Anything
// else (nil, maps, slices from decoded JSON) would be written as Go-formatted
// text.
func checkValue(v any) error {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, string, bool:
		return nil
	case json.Number:
		return nil
	case nil:
		return fmt.Errorf("%w: nil", ErrUnsupportedValue)
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// CoordinateTags formats a position as point tags. Each distinct pair starts
// a new series.
func CoordinateTags(p navdata.Position) map[string]string {
	return map[string]string{
		"lat": strconv.FormatFloat(p.Latitude, 'f', -1, 64),
		"lon": strconv.FormatFloat(p.Longitude, 'f', -1, 64),
	}
}

func quoteIdent(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(name) + `"`
}
