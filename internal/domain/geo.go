package domain

// GeoPoint is a GPS coordinate supplied by the driver app.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}
