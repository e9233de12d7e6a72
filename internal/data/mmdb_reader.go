package data

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

// MmdbReader implements CountryLookup using a MaxMind MMDB file.
type MmdbReader struct {
	db *maxminddb.Reader
}

// NewMmdbReader opens the MMDB file at the given path and returns a reader.
// Only databases carrying country data (Country, City, Enterprise) are accepted.
func NewMmdbReader(path string) (*MmdbReader, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MMDB file: %w", err)
	}
	if !hasCountryData(db.Metadata.DatabaseType) {
		db.Close()
		return nil, fmt.Errorf("MMDB database type %q has no country data", db.Metadata.DatabaseType)
	}
	return &MmdbReader{db: db}, nil
}

func hasCountryData(databaseType string) bool {
	for _, kind := range []string{"Country", "City", "Enterprise"} {
		if strings.Contains(databaseType, kind) {
			return true
		}
	}
	return false
}

// LookupCountry returns the country record for the given IP address.
func (r *MmdbReader) LookupCountry(ip net.IP) (CountryRecord, error) {
	var record geoip2.Country
	_, ok, err := r.db.LookupNetwork(ip, &record)
	if err != nil {
		return CountryRecord{}, fmt.Errorf("country lookup failed: %w", err)
	}
	if !ok {
		return CountryRecord{}, &AddressNotFoundError{IP: ip}
	}
	return CountryRecord{
		IsoCode:           record.Country.IsoCode,
		Names:             record.Country.Names,
		GeoNameID:         record.Country.GeoNameID,
		IsInEuropeanUnion: record.Country.IsInEuropeanUnion,
	}, nil
}

// Close releases the MMDB reader resources.
func (r *MmdbReader) Close() error {
	return r.db.Close()
}
