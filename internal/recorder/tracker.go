// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package recorder

import (
	"sync"

	"github.com/relabs-tech/nav_recorder/internal/navdata"
)

// positionCell holds the latest vessel position. Writes replace it wholesale.
type positionCell struct {
	mu      sync.RWMutex
	pos     navdata.Position
	updated bool
}

func (c *positionCell) set(p navdata.Position) {
	c.mu.Lock()
	c.pos = p
	c.updated = true
	c.mu.Unlock()
}

// get returns the current position and whether it was ever set.
func (c *positionCell) get() (navdata.Position, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pos, c.updated
}
