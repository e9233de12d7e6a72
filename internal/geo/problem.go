package geo

// Problem type identifiers.
const (
	ProblemNoIPAddress              = "no-ip-address"
	ProblemAddressNotFound          = "address-not-found"
	ProblemUnknownError             = "unknown-error"
	ProblemUnableToFindGeolocations = "unable-to-find-geolocations"
)

// ProblemContentType is the media type of problem bodies.
const ProblemContentType = "application/problem+json"

// Problem is a structured error description returned for failed requests.
type Problem struct {
	Type       string      `json:"type"`
	Title      string      `json:"title"`
	Status     int         `json:"status"`
	Detail     string      `json:"detail"`
	Instance   string      `json:"instance"`
	Extensions *Extensions `json:"extensions,omitempty"`
}

// Extensions carries the per-address failures of a batch.
type Extensions struct {
	Errors []Failure `json:"errors"`
}
