// Package geo resolves the addresses a request is about to countries and
// maps the outcomes onto HTTP status codes and problem payloads.
package geo

import (
	"github.com/TomasB/geolocation/internal/data"
)

// OutcomeKind tags the variant held by an Outcome.
type OutcomeKind int

const (
	// OutcomeFound means the engine returned a record with a country code.
	OutcomeFound OutcomeKind = iota
	// OutcomeNotFound means the address is outside the engine's known ranges.
	OutcomeNotFound
	// OutcomeMissingCountry means the engine returned a record without an
	// ISO country code.
	OutcomeMissingCountry
	// OutcomeError covers every other engine failure.
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeMissingCountry:
		return "missing_country"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single lookup. Country is set only for
// OutcomeFound; Message carries the engine's explanation otherwise.
type Outcome struct {
	Kind    OutcomeKind
	Country data.CountryRecord
	Message string
}

// FailureKind is the machine-readable kind of a per-address failure.
type FailureKind string

const (
	FailureInvalidAddress FailureKind = "invalid-address"
	FailureNotFound       FailureKind = "address-not-found"
	FailureMissingCountry FailureKind = "missing-country"
	FailureUnknown        FailureKind = "unknown-error"
)

// failureKind maps a non-found outcome to its reported failure kind.
func (o Outcome) failureKind() FailureKind {
	switch o.Kind {
	case OutcomeNotFound:
		return FailureNotFound
	case OutcomeMissingCountry:
		return FailureMissingCountry
	default:
		return FailureUnknown
	}
}

// Failure describes why one address could not be geolocated.
type Failure struct {
	Address string      `json:"ipAddress"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Result pairs an address, as supplied by the caller, with either its
// country or a failure.
type Result struct {
	Address string
	Country data.CountryRecord
	Failure *Failure
}

// OK reports whether the address was geolocated.
func (r Result) OK() bool {
	return r.Failure == nil
}
