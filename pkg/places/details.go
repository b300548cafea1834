package places

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/contacts-cli/internal/model"
)

var nonDigitRe = regexp.MustCompile(`\D`)

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Name                 string `json:"name"`
		FormattedPhoneNumber string `json:"formatted_phone_number"`
		Website              string `json:"website"`
		AddressComponents    []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"result"`
}

// Details fetches the contact record for a single place. Missing optional
// fields (phone, website) map to empty strings rather than errors.
func (c *httpClient) Details(ctx context.Context, ref model.PlaceRef) (*model.ContactRecord, error) {
	params := url.Values{
		"place_id": {ref.ID},
		"fields":   {"name,address_component,formatted_phone_number,website"},
	}
	reqURL := c.requestURL("/place/details/json", params)

	var resp detailsResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusOK && resp.Status != statusZeroResults {
		return nil, &APIStatusError{Status: resp.Status, HTTPCode: http.StatusOK, URL: redactKey(reqURL)}
	}

	rec := &model.ContactRecord{
		Establishment: resp.Result.Name,
		Phone:         nonDigitRe.ReplaceAllString(resp.Result.FormattedPhoneNumber, ""),
		Website:       resp.Result.Website,
		Category:      ref.Category,
		DataSource:    redactKey(reqURL),
	}

	var streetNumber, route, suffix string
	for _, comp := range resp.Result.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				streetNumber = comp.LongName
			case "route":
				route = comp.LongName
			case "locality":
				rec.Locality = comp.LongName
			case "administrative_area_level_2":
				rec.City = comp.LongName
			case "administrative_area_level_1":
				rec.State = comp.LongName
			case "postal_code":
				rec.PostalCode = comp.LongName
			case "postal_code_suffix":
				suffix = comp.LongName
			}
		}
	}

	rec.Street = strings.TrimSpace(streetNumber + " " + route)
	if suffix != "" && rec.PostalCode != "" {
		rec.PostalCode = rec.PostalCode + "-" + suffix
	}

	return rec, nil
}
