// Package quota gates signing behind a usage limit. Hitting the limit is a
// deliberate pause that asks for an upgrade, not an error state: workflow
// state is preserved and signing resumes once the account is premium. The
// upgrade itself is simulated; there is no payment provider behind it.
package quota

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFreeLimit is the number of signatures available without upgrading.
const DefaultFreeLimit = 3

// ErrLimitReached signals that the free quota is exhausted. Callers check
// it with errors.Is and surface the upgrade path instead of a failure.
var ErrLimitReached = errors.New("signature limit reached")

// Status is a snapshot of the gate for display
type Status struct {
	Used      int  `json:"used"`
	FreeLimit int  `json:"free_limit"`
	Remaining int  `json:"remaining"` // -1 when unlimited
	Premium   bool `json:"premium"`
}

type state struct {
	Used    int  `json:"used"`
	Premium bool `json:"premium"`
}

// Gate tracks signature usage against the free limit, persisted across
// sessions in the state directory.
type Gate struct {
	mu        sync.Mutex
	path      string
	freeLimit int
	state     state
}

// NewGate loads the persisted usage state. A missing or damaged state file
// starts the counter from zero.
func NewGate(path string, freeLimit int) *Gate {
	if freeLimit <= 0 {
		freeLimit = DefaultFreeLimit
	}

	g := &Gate{path: path, freeLimit: freeLimit}

	data, err := os.ReadFile(path)
	if err == nil {
		// Ignore decode errors; a damaged file must not lock users out.
		_ = json.Unmarshal(data, &g.state)
	}
	return g
}

// Check returns ErrLimitReached when signing n more documents would exceed
// the free quota. Premium accounts always pass.
func (g *Gate) Check(n int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Premium {
		return nil
	}
	if g.state.Used+n > g.freeLimit {
		return fmt.Errorf("%w: %d of %d used", ErrLimitReached, g.state.Used, g.freeLimit)
	}
	return nil
}

// CanSign reports whether n more signatures fit in the quota
func (g *Gate) CanSign(n int) bool {
	return g.Check(n) == nil
}

// Consume records n completed signatures. Premium usage is not counted.
func (g *Gate) Consume(n int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Premium {
		return nil
	}
	g.state.Used += n
	return g.persist()
}

// Upgrade marks the account premium. This simulates a completed payment.
func (g *Gate) Upgrade() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.Premium = true
	return g.persist()
}

// Status returns a snapshot of the gate
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	remaining := g.freeLimit - g.state.Used
	if remaining < 0 {
		remaining = 0
	}
	if g.state.Premium {
		remaining = -1
	}

	return Status{
		Used:      g.state.Used,
		FreeLimit: g.freeLimit,
		Remaining: remaining,
		Premium:   g.state.Premium,
	}
}

// persist writes the state file; callers hold the lock.
func (g *Gate) persist() error {
	data, err := json.Marshal(g.state)
	if err != nil {
		return fmt.Errorf("failed to encode quota state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(g.path), 0o750); err != nil {
		return fmt.Errorf("cannot create state directory: %w", err)
	}

	if err := os.WriteFile(g.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write quota state: %w", err)
	}
	return nil
}
