package data

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
)

// ErrNotLoaded is returned by a Reloadable that has no open database.
var ErrNotLoaded = errors.New("lookup database not loaded")

// ErrClosed is returned by Reload once the Reloadable has been closed.
var ErrClosed = errors.New("lookup database closed")

// Opener opens a fresh CountryLookup, typically from a file on disk.
type Opener func() (CountryLookup, error)

// Reloadable is a CountryLookup whose underlying database can be replaced
// while lookups are in flight. A lookup holds the read lock for its whole
// duration, so the previous database is closed only once no lookup uses it.
type Reloadable struct {
	open Opener

	mu      sync.RWMutex
	current CountryLookup
	closed  bool
}

// NewReloadable opens the initial database with open.
func NewReloadable(open Opener) (*Reloadable, error) {
	r := &Reloadable{open: open}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload opens a new database and swaps it in. On failure the current
// database stays in place. After Close, Reload returns ErrClosed.
func (r *Reloadable) Reload() error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	next, err := r.open()
	if err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		next.Close()
		return ErrClosed
	}
	prev := r.current
	r.current = next
	r.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			slog.Warn("failed to close previous database", "error", err)
		}
	}
	return nil
}

// Ready reports whether a database is loaded. It backs the readiness probe.
func (r *Reloadable) Ready() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return ErrNotLoaded
	}
	return nil
}

// LookupCountry delegates to the currently loaded database.
func (r *Reloadable) LookupCountry(ip net.IP) (CountryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return CountryRecord{}, ErrNotLoaded
	}
	return r.current.LookupCountry(ip)
}

// Close closes the current database. Later lookups return ErrNotLoaded and
// later reloads return ErrClosed.
func (r *Reloadable) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}

// Engine names accepted by OpenFile.
const (
	EngineMMDB        = "mmdb"
	EngineIP2Location = "ip2location"
)

// OpenFile opens the database at path with the named engine.
func OpenFile(engine, path string) (CountryLookup, error) {
	var (
		lookup CountryLookup
		err    error
	)
	switch engine {
	case EngineMMDB:
		lookup, err = NewMmdbReader(path)
	case EngineIP2Location:
		lookup, err = NewIP2LocationReader(path)
	default:
		return nil, fmt.Errorf("unknown lookup engine %q", engine)
	}
	if err != nil {
		return nil, err
	}

	attrs := []any{"engine", engine, "path", path}
	if fi, statErr := os.Stat(path); statErr == nil {
		attrs = append(attrs, "size", humanize.Bytes(uint64(fi.Size())))
	}
	slog.Info("database loaded", attrs...)
	return lookup, nil
}

// FileOpener returns an Opener for OpenFile(engine, path).
func FileOpener(engine, path string) Opener {
	return func() (CountryLookup, error) {
		return OpenFile(engine, path)
	}
}
