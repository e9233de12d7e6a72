package data

import (
	"fmt"
	"net"

	"github.com/ip2location/ip2location-go/v9"
)

// unknownCountry is the code IP2Location stores for unallocated and reserved ranges.
const unknownCountry = "-"

// IP2LocationReader implements CountryLookup using an IP2Location BIN file.
//
// This product can use IP2Location LITE data available from
// https://lite.ip2location.com.
type IP2LocationReader struct {
	db *ip2location.DB
}

// NewIP2LocationReader opens the BIN file at the given path.
func NewIP2LocationReader(path string) (*IP2LocationReader, error) {
	db, err := ip2location.OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open IP2Location file: %w", err)
	}
	return &IP2LocationReader{db: db}, nil
}

// LookupCountry returns the country record for the given IP address.
func (r *IP2LocationReader) LookupCountry(ip net.IP) (CountryRecord, error) {
	record, err := r.db.Get_all(ip.String())
	if err != nil {
		return CountryRecord{}, fmt.Errorf("country lookup failed: %w", err)
	}
	return countryFromRecord(ip, record)
}

// countryFromRecord maps an IP2Location record onto CountryRecord. The library
// reports unsupported input (e.g. IPv6 against an IPv4-only file) as a message
// in the record fields rather than as an error.
func countryFromRecord(ip net.IP, record ip2location.IP2Locationrecord) (CountryRecord, error) {
	code := record.Country_short
	switch {
	case code == "" || code == unknownCountry:
		return CountryRecord{}, &AddressNotFoundError{IP: ip}
	case len(code) != 2:
		return CountryRecord{}, fmt.Errorf("country lookup failed: %s", code)
	}

	return CountryRecord{
		IsoCode: code,
		Names:   map[string]string{"en": record.Country_long},
	}, nil
}

// Close releases the IP2Location file handle.
func (r *IP2LocationReader) Close() error {
	r.db.Close()
	return nil
}
