package data

import (
	"net"
	"testing"

	"github.com/ip2location/ip2location-go/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIP2LocationReader_InvalidPath(t *testing.T) {
	_, err := NewIP2LocationReader("/nonexistent/IP2LOCATION-LITE-DB1.BIN")
	assert.Error(t, err)
}

func TestOpenFile_UnknownEngine(t *testing.T) {
	_, err := OpenFile("sqlite", testMMDBPath)
	assert.EqualError(t, err, `unknown lookup engine "sqlite"`)
}

func TestCountryFromRecord(t *testing.T) {
	ip := net.ParseIP("8.8.8.8")

	tests := []struct {
		name         string
		short        string
		long         string
		wantCode     string
		wantNotFound bool
		wantErr      bool
	}{
		{name: "found", short: "US", long: "United States of America", wantCode: "US"},
		{name: "unallocated range", short: "-", long: "-", wantNotFound: true},
		{name: "empty record", short: "", long: "", wantNotFound: true},
		{name: "invalid address message", short: "Invalid IP address.", long: "Invalid IP address.", wantErr: true},
		{
			name:    "unsupported field message",
			short:   "This parameter is unavailable for selected data file. Please upgrade the data file.",
			long:    "This parameter is unavailable for selected data file. Please upgrade the data file.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := ip2location.IP2Locationrecord{Country_short: tt.short, Country_long: tt.long}

			got, err := countryFromRecord(ip, record)

			switch {
			case tt.wantNotFound:
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrAddressNotFound)
			case tt.wantErr:
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrAddressNotFound)
				assert.Contains(t, err.Error(), tt.short)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantCode, got.IsoCode)
				assert.Equal(t, map[string]string{"en": tt.long}, got.Names)
			}
		})
	}
}
