package geo

import (
	"fmt"
	"net/http"

	"github.com/TomasB/geolocation/internal/data"
)

// Geolocation is the success body for one address.
type Geolocation struct {
	IPAddress string             `json:"ipAddress"`
	Country   data.CountryRecord `json:"country"`
}

// Geolocations is the success body for a batch.
type Geolocations struct {
	Geolocations []Geolocation `json:"geolocations"`
}

// PartialGeolocations is the body of a partially successful batch.
type PartialGeolocations struct {
	Geolocations   []Geolocation `json:"geolocations"`
	ProblemDetails Problem       `json:"problemDetails"`
}

// Response is a status code and the body to encode with it.
type Response struct {
	Status int
	Body   any
}

// IsProblem reports whether Body is a Problem.
func (r Response) IsProblem() bool {
	_, ok := r.Body.(Problem)
	return ok
}

// ClassifyNoAddress is the response when no subject address could be
// determined or a batch holds no addresses.
func ClassifyNoAddress(instance string) Response {
	return Response{
		Status: http.StatusBadRequest,
		Body: Problem{
			Type:     ProblemNoIPAddress,
			Title:    "No remote IP address",
			Status:   http.StatusBadRequest,
			Detail:   "Unable to parse or determine the IP address(es) to be geolocalized.",
			Instance: instance,
		},
	}
}

// ClassifySingle maps the outcome of looking up address.
func ClassifySingle(address string, out Outcome, instance string) Response {
	switch out.Kind {
	case OutcomeFound:
		return Response{
			Status: http.StatusOK,
			Body:   Geolocation{IPAddress: address, Country: out.Country},
		}
	case OutcomeNotFound:
		return Response{
			Status: http.StatusNotFound,
			Body: Problem{
				Type:     ProblemAddressNotFound,
				Title:    "Address not found",
				Status:   http.StatusNotFound,
				Detail:   fmt.Sprintf("IpAddress: %s, Message: %s", address, out.Message),
				Instance: instance,
			},
		}
	default:
		return Response{
			Status: http.StatusInternalServerError,
			Body: Problem{
				Type:     ProblemUnknownError,
				Title:    "Unknown error occurred.",
				Status:   http.StatusInternalServerError,
				Detail:   fmt.Sprintf("IpAddress: %s, Message: %s", address, out.Message),
				Instance: instance,
			},
		}
	}
}

// ClassifyBatch maps a batch result.
func ClassifyBatch(batch BatchResult, instance string) Response {
	switch batch.Status {
	case BatchNoInput:
		return ClassifyNoAddress(instance)
	case BatchAllSucceeded:
		return Response{
			Status: http.StatusOK,
			Body:   Geolocations{Geolocations: toGeolocations(batch.Successes())},
		}
	case BatchAllFailed:
		return Response{
			Status: http.StatusBadRequest,
			Body:   batchProblem(batch, http.StatusBadRequest, instance),
		}
	default:
		return Response{
			Status: http.StatusPartialContent,
			Body: PartialGeolocations{
				Geolocations:   toGeolocations(batch.Successes()),
				ProblemDetails: batchProblem(batch, http.StatusPartialContent, instance),
			},
		}
	}
}

func batchProblem(batch BatchResult, status int, instance string) Problem {
	return Problem{
		Type:       ProblemUnableToFindGeolocations,
		Title:      "Unable to find geolocations",
		Status:     status,
		Detail:     "Unable to find geolocation(s) for some or all of the IP address(es).",
		Instance:   instance,
		Extensions: &Extensions{Errors: batch.Failures()},
	}
}

func toGeolocations(results []Result) []Geolocation {
	out := make([]Geolocation, 0, len(results))
	for _, r := range results {
		out = append(out, Geolocation{IPAddress: r.Address, Country: r.Country})
	}
	return out
}
