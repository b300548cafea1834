package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/model"
)

type nearbyResponse struct {
	Status        string `json:"status"`
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		PlaceID string `json:"place_id"`
	} `json:"results"`
}

// NearbySearch enumerates places of the given category inside the viewport.
// It follows next_page_token continuations, waiting the configured page delay
// before each one, and stops at the page cap. Results are deduplicated by
// place ID: viewports resolved from adjacent postal codes overlap, so the
// same place can appear in more than one page.
func (c *httpClient) NearbySearch(ctx context.Context, vp model.Viewport, category string) ([]model.PlaceRef, error) {
	log := zap.L().With(
		zap.String("component", "places.nearby"),
		zap.String("category", category),
	)

	seen := make(map[string]struct{})
	var refs []model.PlaceRef
	pageToken := ""

	for page := 0; page < c.maxPages; page++ {
		if pageToken != "" {
			// Tokens are not valid immediately after issue.
			if err := c.waitPage(ctx); err != nil {
				return nil, err
			}
		}

		params := url.Values{
			"location": {fmt.Sprintf("%v,%v", vp.Lat, vp.Lng)},
			"radius":   {strconv.FormatFloat(vp.Radius, 'f', -1, 64)},
			"type":     {category},
		}
		if pageToken != "" {
			params.Set("pagetoken", pageToken)
		}
		reqURL := c.requestURL("/place/nearbysearch/json", params)

		var resp nearbyResponse
		if err := c.getJSON(ctx, reqURL, &resp); err != nil {
			return nil, err
		}
		if resp.Status != statusOK && resp.Status != statusZeroResults {
			return nil, &APIStatusError{Status: resp.Status, HTTPCode: http.StatusOK, URL: redactKey(reqURL)}
		}

		for _, r := range resp.Results {
			if r.PlaceID == "" {
				continue
			}
			if _, ok := seen[r.PlaceID]; ok {
				continue
			}
			seen[r.PlaceID] = struct{}{}
			refs = append(refs, model.PlaceRef{ID: r.PlaceID, Category: category})
		}

		log.Debug("fetched page",
			zap.Int("page", page+1),
			zap.Int("results", len(resp.Results)),
			zap.Bool("has_next", resp.NextPageToken != ""),
		)

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return refs, nil
}
