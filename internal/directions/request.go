package directions

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	httptransport "github.com/go-kit/kit/transport/http"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/polyline"
)

const (
	// DefaultLegacyURL is the Directions API endpoint.
	DefaultLegacyURL = "https://maps.googleapis.com/maps/api/directions/json"
	// DefaultRoutesV2URL is the Routes API computeRoutes endpoint.
	DefaultRoutesV2URL = "https://routes.googleapis.com/directions/v2:computeRoutes"

	headerAPIKey    = "X-Goog-Api-Key"
	headerFieldMask = "X-Goog-FieldMask"

	// polylineFieldMask limits the computeRoutes response to the path only.
	polylineFieldMask = "routes.polyline.encodedPolyline"
)

// routesV2Request is the computeRoutes request body.
type routesV2Request struct {
	Origin                   routesV2Waypoint `json:"origin"`
	Destination              routesV2Waypoint `json:"destination"`
	TravelMode               string           `json:"travelMode"`
	RoutingPreference        string           `json:"routingPreference"`
	ComputeAlternativeRoutes bool             `json:"computeAlternativeRoutes"`
	LanguageCode             string           `json:"languageCode"`
	Units                    string           `json:"units"`
}

type routesV2Waypoint struct {
	Location routesV2Location `json:"location"`
}

type routesV2Location struct {
	LatLng routesV2LatLng `json:"latLng"`
}

type routesV2LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func newRoutesV2Request(spec route.RequestSpec) routesV2Request {
	return routesV2Request{
		Origin:                   toWaypoint(spec.Origin),
		Destination:              toWaypoint(spec.Destination),
		TravelMode:               "DRIVE",
		RoutingPreference:        "TRAFFIC_AWARE",
		ComputeAlternativeRoutes: false,
		LanguageCode:             "en-US",
		Units:                    "METRIC",
	}
}

func toWaypoint(p route.GeoPoint) routesV2Waypoint {
	return routesV2Waypoint{Location: routesV2Location{LatLng: routesV2LatLng{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	}}}
}

// formatCoordinate renders a point as "lat,lng" using the shortest exact decimal form.
func formatCoordinate(p route.GeoPoint) string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

func encodeLegacyRequest(_ context.Context, r *http.Request, request interface{}) error {
	spec, ok := request.(route.RequestSpec)
	if !ok {
		return fmt.Errorf("encode legacy request: unexpected type %T", request)
	}

	q := r.URL.Query()
	q.Set("origin", formatCoordinate(spec.Origin))
	q.Set("destination", formatCoordinate(spec.Destination))
	q.Set("key", spec.APIKey)
	r.URL.RawQuery = q.Encode()
	return nil
}

func encodeRoutesV2Request(ctx context.Context, r *http.Request, request interface{}) error {
	spec, ok := request.(route.RequestSpec)
	if !ok {
		return fmt.Errorf("encode routes v2 request: unexpected type %T", request)
	}

	r.Header.Set(headerAPIKey, spec.APIKey)
	return httptransport.EncodeJSONRequest(ctx, r, newRoutesV2Request(spec))
}

// decodeRouteResponse returns a go-kit DecodeResponseFunc that turns a response
// body of the given backend shape into decoded points.
func decodeRouteResponse(backend route.Backend) httptransport.DecodeResponseFunc {
	return func(_ context.Context, resp *http.Response) (interface{}, error) {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &NetworkError{Backend: backend, Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &HTTPStatusError{Backend: backend, StatusCode: resp.StatusCode, Body: truncateBody(body)}
		}

		encoded, found, err := Parse(backend, body)
		if err != nil {
			return nil, err
		}
		if !found {
			return []route.GeoPoint{}, nil
		}

		points, err := polyline.Decode(encoded)
		if err != nil {
			return nil, fmt.Errorf("decode %s polyline: %w", backend, err)
		}
		return points, nil
	}
}
