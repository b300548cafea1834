package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
)

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"

	earthRadiusM = 6371000.0

	// The nearby-search radius covers the geocoded bounding box with some
	// slack: 60% of the box's NE-SW diagonal.
	radiusDiagonalFactor = 0.6
)

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location latLng `json:"location"`
			Viewport struct {
				Northeast latLng `json:"northeast"`
				Southwest latLng `json:"southwest"`
			} `json:"viewport"`
		} `json:"geometry"`
	} `json:"results"`
}

// ResolvePostalCode geocodes a postal code to a center coordinate and a
// radius spanning the returned viewport. An unrecognized postal code is a
// *ResolutionError; any other non-success response is an *APIStatusError.
func (c *httpClient) ResolvePostalCode(ctx context.Context, postalCode, countryCode string) (*model.Viewport, error) {
	params := url.Values{
		"components": {fmt.Sprintf("postal_code:%s|country:%s", postalCode, countryCode)},
	}
	reqURL := c.requestURL("/geocode/json", params)

	var resp geocodeResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	if resp.Status != statusOK && resp.Status != statusZeroResults {
		return nil, &APIStatusError{Status: resp.Status, HTTPCode: http.StatusOK, URL: redactKey(reqURL)}
	}
	if resp.Status == statusZeroResults || len(resp.Results) == 0 {
		return nil, &ResolutionError{PostalCode: postalCode, CountryCode: countryCode, URL: redactKey(reqURL)}
	}

	geom := resp.Results[0].Geometry
	vp := &model.Viewport{
		Lat: geom.Location.Lat,
		Lng: geom.Location.Lng,
		Radius: radiusDiagonalFactor * haversineM(
			geom.Viewport.Northeast.Lat, geom.Viewport.Northeast.Lng,
			geom.Viewport.Southwest.Lat, geom.Viewport.Southwest.Lng,
		),
	}

	zap.L().Debug("resolved postal code",
		zap.String("postal_code", postalCode),
		zap.Float64("lat", vp.Lat),
		zap.Float64("lng", vp.Lng),
		zap.Float64("radius_m", vp.Radius),
	)

	return vp, nil
}

// getJSON performs a rate-limited GET and decodes the body. Non-200 responses
// become *APIStatusError.
func (c *httpClient) getJSON(ctx context.Context, reqURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "places: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &APIStatusError{HTTPCode: resp.StatusCode, URL: redactKey(reqURL)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "places: unmarshal response")
	}

	return nil
}

// haversineM returns the great-circle distance in meters between two points.
func haversineM(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}
