package directions

import (
	"encoding/json"
	"fmt"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
)

const (
	legacyStatusOK          = "OK"
	legacyStatusZeroResults = "ZERO_RESULTS"
)

type legacyResponse struct {
	Status       string             `json:"status"`
	ErrorMessage string             `json:"error_message"`
	Routes       *[]json.RawMessage `json:"routes"`
}

type legacyRoute struct {
	OverviewPolyline *struct {
		Points *string `json:"points"`
	} `json:"overview_polyline"`
}

type routesV2Response struct {
	Routes *[]json.RawMessage `json:"routes"`
	Error  *routesV2Error     `json:"error"`
}

type routesV2Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type routesV2Route struct {
	Polyline *struct {
		EncodedPolyline *string `json:"encodedPolyline"`
	} `json:"polyline"`
}

// Parse extracts the encoded polyline of the first route in body.
// found is false when the backend returned no routes; a body that does not
// match the backend's shape yields a *ParseError.
func Parse(backend route.Backend, body []byte) (encoded string, found bool, err error) {
	switch backend {
	case route.BackendLegacy:
		return parseLegacy(body)
	case route.BackendRoutesV2:
		return parseRoutesV2(body)
	default:
		return "", false, &ParseError{Backend: backend, Err: fmt.Errorf("unknown backend %q", backend)}
	}
}

func parseLegacy(body []byte) (string, bool, error) {
	var resp legacyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false, &ParseError{Backend: route.BackendLegacy, Err: err}
	}

	switch resp.Status {
	case "", legacyStatusOK:
	case legacyStatusZeroResults:
		return "", false, nil
	default:
		return "", false, &ParseError{
			Backend: route.BackendLegacy,
			Field:   "status",
			Err:     fmt.Errorf("%s: %s", resp.Status, resp.ErrorMessage),
		}
	}

	if resp.Routes == nil {
		return "", false, &ParseError{Backend: route.BackendLegacy, Field: "routes", Err: errMissing}
	}
	if len(*resp.Routes) == 0 {
		return "", false, nil
	}

	var first legacyRoute
	if err := json.Unmarshal((*resp.Routes)[0], &first); err != nil {
		return "", false, &ParseError{Backend: route.BackendLegacy, Field: "routes[0]", Err: err}
	}
	if first.OverviewPolyline == nil {
		return "", false, &ParseError{Backend: route.BackendLegacy, Field: "routes[0].overview_polyline", Err: errMissing}
	}
	if first.OverviewPolyline.Points == nil {
		return "", false, &ParseError{Backend: route.BackendLegacy, Field: "routes[0].overview_polyline.points", Err: errMissing}
	}
	return *first.OverviewPolyline.Points, true, nil
}

func parseRoutesV2(body []byte) (string, bool, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return "", false, &ParseError{Backend: route.BackendRoutesV2, Err: err}
	}
	if keys == nil {
		return "", false, &ParseError{Backend: route.BackendRoutesV2, Err: fmt.Errorf("body is null")}
	}
	// computeRoutes answers an unroutable request with an empty object.
	if len(keys) == 0 {
		return "", false, nil
	}

	var resp routesV2Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false, &ParseError{Backend: route.BackendRoutesV2, Err: err}
	}
	if resp.Error != nil {
		return "", false, &ParseError{
			Backend: route.BackendRoutesV2,
			Field:   "error",
			Err:     fmt.Errorf("%s (%d): %s", resp.Error.Status, resp.Error.Code, resp.Error.Message),
		}
	}
	if resp.Routes == nil {
		return "", false, &ParseError{Backend: route.BackendRoutesV2, Field: "routes", Err: errMissing}
	}
	if len(*resp.Routes) == 0 {
		return "", false, nil
	}

	var first routesV2Route
	if err := json.Unmarshal((*resp.Routes)[0], &first); err != nil {
		return "", false, &ParseError{Backend: route.BackendRoutesV2, Field: "routes[0]", Err: err}
	}
	if first.Polyline == nil {
		return "", false, &ParseError{Backend: route.BackendRoutesV2, Field: "routes[0].polyline", Err: errMissing}
	}
	if first.Polyline.EncodedPolyline == nil {
		return "", false, &ParseError{Backend: route.BackendRoutesV2, Field: "routes[0].polyline.encodedPolyline", Err: errMissing}
	}
	return *first.Polyline.EncodedPolyline, true, nil
}
