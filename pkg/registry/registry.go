// Package registry implements the shared, process-wide registries named in
// spec section 4.5: the table registry (id allocation, insertion,
// deletion) and the per-connection username and table-seat maps kept by
// the connection handler. Each connection's DFA state is held by its own
// handler, not in this package. Each registry exposes
// only lock-protected operations; individual tables are reached through
// the registry and then operated on via their own lock, per the
// tables-lock -> table-lock -> player-lock -> account-lock ordering in
// spec section 5.
package registry

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/decred/slog"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/table"
)

// ErrTableNotFound is returned by Get/Remove for an unknown table id.
var ErrTableNotFound = errors.New("registry: table not found")

// Tables is the registry of live tables, keyed by 16-bit id. Table 0 is the
// default table present at startup; subsequent ids monotonically increase
// from 1 (spec section 3).
type Tables struct {
	log slog.Logger
	rng func() *rand.Rand

	mu     sync.RWMutex
	nextID uint16
	byID   map[uint16]*table.Table
}

// NewTables creates a registry seeded with one default table (id 0).
// newRNG is called once per table to seed its shoe shuffler.
func NewTables(log slog.Logger, defaultSettings protocol.TableSettings, newRNG func() *rand.Rand) *Tables {
	t := &Tables{
		log:    log,
		rng:    newRNG,
		nextID: 1,
		byID:   make(map[uint16]*table.Table),
	}
	t.byID[0] = table.New(0, defaultSettings, log, newRNG())
	return t
}

// Add allocates the next table id, inserts a new table with the given
// settings, and returns it. The tables-lock is released before the caller
// does anything else with the table (spec section 4.5).
func (t *Tables) Add(settings protocol.TableSettings) *table.Table {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	tbl := table.New(id, settings, t.log, t.rng())
	t.byID[id] = tbl
	t.mu.Unlock()
	return tbl
}

// Get returns the table with the given id.
func (t *Tables) Get(id uint16) (*table.Table, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tbl, ok := t.byID[id]
	return tbl, ok
}

// Remove deletes a table from the registry and shuts it down, kicking every
// seated and pending player back to ACCOUNT (spec section 4.4 "Shutdown").
// Removing the default table (id 0) is allowed; a future AddTable still
// allocates from the monotonically increasing counter.
func (t *Tables) Remove(id uint16) error {
	t.mu.Lock()
	tbl, ok := t.byID[id]
	if !ok {
		t.mu.Unlock()
		return ErrTableNotFound
	}
	delete(t.byID, id)
	t.mu.Unlock()

	tbl.Shutdown()
	return nil
}

// List returns every table's id and settings, in no particular order.
func (t *Tables) List() []protocol.TableListing {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]protocol.TableListing, 0, len(t.byID))
	for id, tbl := range t.byID {
		out = append(out, protocol.TableListing{TableID: id, Settings: tbl.Settings})
	}
	return out
}

// Connections tracks, per live connection, the authenticated username and
// the table (if any) the connection is currently seated at. Keyed by an
// opaque connection identity supplied by the caller (the connection
// handler's own pointer or similar); each mutation point is serialized,
// matching spec section 5's "connection->user/table maps" policy.
type Connections struct {
	mu        sync.RWMutex
	usernames map[any]string
	tableIDs  map[any]uint16
	seated    map[any]bool
}

// NewConnections creates an empty connection registry.
func NewConnections() *Connections {
	return &Connections{
		usernames: make(map[any]string),
		tableIDs:  make(map[any]uint16),
		seated:    make(map[any]bool),
	}
}

// SetUsername records the authenticated username for a connection.
func (c *Connections) SetUsername(conn any, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usernames[conn] = username
}

// Username returns the username previously recorded for conn, if any.
func (c *Connections) Username(conn any) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.usernames[conn]
	return u, ok
}

// SetTable records which table id a connection is seated at.
func (c *Connections) SetTable(conn any, tableID uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableIDs[conn] = tableID
	c.seated[conn] = true
}

// ClearTable forgets a connection's table seat, called once Leave or
// Shutdown has released it (property P7).
func (c *Connections) ClearTable(conn any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tableIDs, conn)
	delete(c.seated, conn)
}

// Table returns the table id a connection currently occupies.
func (c *Connections) Table(conn any) (uint16, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.seated[conn] {
		return 0, false
	}
	return c.tableIDs[conn], true
}

// Forget removes every entry for conn, called once the connection closes.
func (c *Connections) Forget(conn any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.usernames, conn)
	delete(c.tableIDs, conn)
	delete(c.seated, conn)
}
