package geo

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/TomasB/geolocation/internal/data"
)

// Service turns the lookup engine's results into Outcomes.
type Service struct {
	lookup   data.CountryLookup
	recorder Recorder
}

// NewService creates a Service over lookup. A nil recorder discards events.
func NewService(lookup data.CountryLookup, recorder Recorder) *Service {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Service{lookup: lookup, recorder: recorder}
}

// LookupCountry looks up addr and never fails: every engine error, and a
// panic inside the engine, becomes an Outcome. IPv4-mapped IPv6 addresses
// are looked up as plain IPv4.
func (s *Service) LookupCountry(addr netip.Addr) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("country lookup panicked", "ip", addr.String(), "panic", r)
			out = Outcome{Kind: OutcomeError, Message: fmt.Sprintf("lookup engine fault: %v", r)}
		}
		s.recorder.LookupCompleted(out.Kind, time.Since(start))
	}()

	ip := net.IP(addr.Unmap().AsSlice())
	record, err := s.lookup.LookupCountry(ip)
	switch {
	case errors.Is(err, data.ErrAddressNotFound):
		slog.Debug("address not found", "ip", addr.String(), "error", err)
		return Outcome{Kind: OutcomeNotFound, Message: err.Error()}
	case err != nil:
		slog.Error("country lookup failed", "ip", addr.String(), "error", err)
		return Outcome{Kind: OutcomeError, Message: err.Error()}
	case record.IsoCode == "":
		slog.Warn("lookup returned empty country", "ip", addr.String())
		return Outcome{Kind: OutcomeMissingCountry, Message: "lookup returned empty country"}
	}
	return Outcome{Kind: OutcomeFound, Country: record}
}
