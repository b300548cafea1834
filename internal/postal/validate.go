// Package postal validates harvester inputs (establishment types, state and
// country codes) and loads the bundled state-to-postal-code lookup table.
// All checks run before any network call is made.
package postal

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports a rejected input value together with the full
// accepted-value set, so the CLI can echo valid choices back to the user.
type ValidationError struct {
	Field    string
	Value    string
	Accepted []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q; accepted values: %s",
		e.Field, e.Value, strings.Join(e.Accepted, ", "))
}

// establishmentTypes are the place types supported by the Places nearby
// search endpoint.
var establishmentTypes = []string{
	"accounting", "airport", "amusement_park", "aquarium",
	"art_gallery", "atm", "bakery", "bank", "bar",
	"beauty_salon", "bicycle_store", "book_store",
	"bowling_alley", "bus_station", "cafe", "campground",
	"car_dealer", "car_rental", "car_repair", "car_wash",
	"casino", "cemetery", "church", "city_hall",
	"clothing_store", "convenience_store", "courthouse",
	"dentist", "department_store", "doctor", "electrician",
	"electronics_store", "embassy", "fire_station",
	"florist", "funeral_home", "furniture_store",
	"gas_station", "gym", "hair_care", "hardware_store",
	"hindu_temple", "home_goods_store", "hospital",
	"insurance_agency", "jewelry_store", "laundry",
	"lawyer", "library", "light_rail_station",
	"liquor_store", "local_government_office",
	"locksmith", "lodging", "meal_delivery",
	"meal_takeaway", "mosque", "movie_rental",
	"movie_theater", "moving_company", "museum",
	"night_club", "painter", "park", "parking", "pet_store",
	"pharmacy", "physiotherapist", "plumber", "police",
	"post_office", "real_estate_agency", "restaurant",
	"roofing_contractor", "rv_park", "school", "shoe_store",
	"shopping_mall", "spa", "stadium", "storage", "store",
	"subway_station", "synagogue", "taxi_stand",
	"train_station", "transit_station", "travel_agency",
	"university", "veterinary_care", "zoo",
}

// stateCodes are the USPS state, territory, and military-mail abbreviations
// present in the bundled postal-code table.
var stateCodes = []string{
	"AA", "AK", "AL", "AP", "AR", "AZ", "CA", "CO", "CT",
	"DC", "DE", "FL", "FM", "GA", "HI", "IA", "ID", "IL",
	"IN", "KS", "KY", "LA", "MA", "MD", "ME", "MH", "MI",
	"MN", "MO", "MP", "MS", "MT", "NC", "ND", "NE", "NH",
	"NJ", "NM", "NV", "NY", "OH", "OK", "OR", "PA", "PW",
	"RI", "SC", "SD", "TN", "TX", "UT", "VA", "VT", "WA",
	"WI", "WV", "WY",
}

// Establishments returns the accepted establishment types, sorted.
func Establishments() []string {
	out := make([]string, len(establishmentTypes))
	copy(out, establishmentTypes)
	sort.Strings(out)
	return out
}

// StateCodes returns the accepted US state codes, sorted.
func StateCodes() []string {
	out := make([]string, len(stateCodes))
	copy(out, stateCodes)
	sort.Strings(out)
	return out
}

// CheckEstablishment rejects establishment types the Places API does not
// support.
func CheckEstablishment(establishment string) error {
	for _, t := range establishmentTypes {
		if t == establishment {
			return nil
		}
	}
	return &ValidationError{Field: "establishment type", Value: establishment, Accepted: Establishments()}
}

// CheckStateCode rejects state codes absent from the postal-code table.
func CheckStateCode(stateCode string) error {
	for _, s := range stateCodes {
		if s == stateCode {
			return nil
		}
	}
	return &ValidationError{Field: "state code", Value: stateCode, Accepted: StateCodes()}
}

// CheckCountryCode rejects country codes that are not ISO 3166-1 alpha-2.
func CheckCountryCode(countryCode string) error {
	if _, ok := countryCodes[countryCode]; ok {
		return nil
	}
	accepted := make([]string, 0, len(countryCodes))
	for c := range countryCodes {
		accepted = append(accepted, c)
	}
	sort.Strings(accepted)
	return &ValidationError{Field: "country code", Value: countryCode, Accepted: accepted}
}
