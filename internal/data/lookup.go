package data

import (
	"errors"
	"fmt"
	"net"
)

// ErrAddressNotFound is matched by errors.Is for addresses outside the
// ranges known to the database.
var ErrAddressNotFound = errors.New("address not found")

// CountryRecord is the country data a lookup engine returns for an address.
// Name fields are passed through as the engine reports them.
type CountryRecord struct {
	IsoCode           string            `json:"isoCode"`
	Names             map[string]string `json:"names,omitempty"`
	GeoNameID         uint              `json:"geonameId,omitempty"`
	IsInEuropeanUnion bool              `json:"isInEuropeanUnion"`
}

// AddressNotFoundError reports that the database holds no data for IP.
type AddressNotFoundError struct {
	IP net.IP
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("the address %s is not in the database", e.IP)
}

// Is makes errors.Is(err, ErrAddressNotFound) hold.
func (e *AddressNotFoundError) Is(target error) bool {
	return target == ErrAddressNotFound
}

// CountryLookup defines the interface for IP-to-country lookups.
type CountryLookup interface {
	// LookupCountry returns the country record for the given IP address.
	// Addresses missing from the database yield an *AddressNotFoundError;
	// any other error is an engine fault.
	LookupCountry(ip net.IP) (CountryRecord, error)

	// Close releases any resources held by the lookup implementation.
	Close() error
}
