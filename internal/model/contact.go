// Package model holds the data types shared across the harvester.
package model

// Viewport is the search region resolved for a postal code: a center
// coordinate plus a radius (meters) spanning the geocoder's bounding box.
type Viewport struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius float64 `json:"radius"`
}

// PlaceRef identifies one establishment returned by a nearby search.
type PlaceRef struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// ContactRecord is one harvested establishment row. Struct order matches the
// output CSV column order; all fields are strings so records are comparable
// for duplicate dropping during aggregation.
type ContactRecord struct {
	Establishment string `csv:"establishment" json:"establishment"`
	Phone         string `csv:"phone_number" json:"phone_number"`
	Street        string `csv:"address" json:"address"`
	Locality      string `csv:"locality" json:"locality"`
	City          string `csv:"city" json:"city"`
	State         string `csv:"state" json:"state"`
	PostalCode    string `csv:"postal_code" json:"postal_code"`
	Website       string `csv:"website" json:"website"`
	Category      string `csv:"category" json:"category"`
	DataSource    string `csv:"data_source" json:"data_source"`
}
