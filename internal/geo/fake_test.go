package geo

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/TomasB/geolocation/internal/data"
)

// fixtureCountries maps known addresses to ISO codes.
var fixtureCountries = map[string]string{
	"206.172.131.27": "CA",
	"1.32.195.2":     "SG",
	"79.170.232.99":  "FR",
	"103.100.236.88": "CN",
	"154.93.33.1":    "RU",
	"180.87.172.22":  "IN",
}

// fakeLookup implements data.CountryLookup over a fixed table.
type fakeLookup struct {
	countries map[string]string
	faults    map[string]error
	panics    map[string]bool

	mu   sync.Mutex
	seen []string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{countries: fixtureCountries}
}

func (f *fakeLookup) LookupCountry(ip net.IP) (data.CountryRecord, error) {
	key := ip.String()
	f.mu.Lock()
	f.seen = append(f.seen, key)
	f.mu.Unlock()

	if f.panics[key] {
		panic("corrupt search tree")
	}
	if err, ok := f.faults[key]; ok {
		return data.CountryRecord{}, err
	}
	code, ok := f.countries[key]
	if !ok {
		return data.CountryRecord{}, &data.AddressNotFoundError{IP: ip}
	}
	return data.CountryRecord{IsoCode: code, Names: map[string]string{"en": code}}, nil
}

func (f *fakeLookup) Close() error {
	return nil
}

func (f *fakeLookup) lookups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

var errDatabaseCorrupt = errors.New("invalid MaxMind DB data section")

type lookupEvent struct {
	kind OutcomeKind
}

type batchEvent struct {
	status BatchStatus
	size   int
}

// captureRecorder keeps every recorded event.
type captureRecorder struct {
	mu      sync.Mutex
	lookups []lookupEvent
	batches []batchEvent
}

func (c *captureRecorder) LookupCompleted(kind OutcomeKind, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups = append(c.lookups, lookupEvent{kind: kind})
}

func (c *captureRecorder) BatchCompleted(status BatchStatus, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, batchEvent{status: status, size: size})
}
