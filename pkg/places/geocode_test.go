package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geocodeBody(status string, lat, lng, neLat, neLng, swLat, swLng float64) map[string]any {
	if status != statusOK {
		return map[string]any{"status": status, "results": []any{}}
	}
	return map[string]any{
		"status": status,
		"results": []any{
			map[string]any{
				"geometry": map[string]any{
					"location": map[string]any{"lat": lat, "lng": lng},
					"viewport": map[string]any{
						"northeast": map[string]any{"lat": neLat, "lng": neLng},
						"southwest": map[string]any{"lat": swLat, "lng": swLng},
					},
				},
			},
		},
	}
}

func TestResolvePostalCode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/json", r.URL.Path)
		assert.Equal(t, "postal_code:10001|country:US", r.URL.Query().Get("components"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		_ = json.NewEncoder(w).Encode(geocodeBody(statusOK,
			40.7506, -73.9972,
			40.7596, -73.9865,
			40.7415, -74.0081,
		))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	vp, err := client.ResolvePostalCode(context.Background(), "10001", "US")

	require.NoError(t, err)
	assert.InDelta(t, 40.7506, vp.Lat, 0.0001)
	assert.InDelta(t, -73.9972, vp.Lng, 0.0001)

	// Radius is 60% of the NE-SW diagonal (~2.7km for this viewport).
	assert.Greater(t, vp.Radius, 1000.0)
	assert.Less(t, vp.Radius, 3000.0)
}

func TestResolvePostalCode_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(geocodeBody(statusZeroResults, 0, 0, 0, 0, 0, 0))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	vp, err := client.ResolvePostalCode(context.Background(), "00000", "US")

	assert.Nil(t, vp)
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "00000", resErr.PostalCode)
	assert.Equal(t, "US", resErr.CountryCode)
	assert.Contains(t, resErr.URL, "key=REDACTED")
}

func TestResolvePostalCode_APIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "REQUEST_DENIED"})
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.ResolvePostalCode(context.Background(), "10001", "US")

	var apiErr *APIStatusError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "REQUEST_DENIED", apiErr.Status)
	assert.NotContains(t, apiErr.URL, "bad-key")
}

func TestResolvePostalCode_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.ResolvePostalCode(context.Background(), "10001", "US")

	var apiErr *APIStatusError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.HTTPCode)
	assert.Empty(t, apiErr.Status)
}

func TestHaversineM(t *testing.T) {
	// Austin (30.2672, -97.7431) to Dallas (32.7767, -96.7970) ≈ 290km.
	d := haversineM(30.2672, -97.7431, 32.7767, -96.7970)
	assert.InDelta(t, 290_000, d, 10_000)

	// Same point should be 0.
	assert.InDelta(t, 0, haversineM(30.0, -97.0, 30.0, -97.0), 0.001)
}

func TestRedactKey(t *testing.T) {
	got := redactKey("https://example.com/geocode/json?components=x&key=secret123")
	assert.NotContains(t, got, "secret123")
	assert.Contains(t, got, "key=REDACTED")
	assert.Contains(t, got, "components=x")
}
