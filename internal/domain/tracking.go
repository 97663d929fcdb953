package domain

import "time"

// GeoLocation is a point on the globe, optionally named (e.g. a port).
type GeoLocation struct {
	Latitude  float64
	Longitude float64
	Name      string
}

// Valid reports whether the coordinates are inside the WGS84 envelope.
func (g GeoLocation) Valid() bool {
	return g.Latitude >= -90 && g.Latitude <= 90 &&
		g.Longitude >= -180 && g.Longitude <= 180
}

// Tracking is the tracking-source view of one container.
//
// ActualArrival and DestinationPort are independently optional; their
// absence is not an error, it only disables weather enrichment.
// DelayReasons preserves the order reported by the source.
type Tracking struct {
	ContainerNumber  string
	SCAC             string
	EstimatedArrival time.Time
	ActualArrival    *time.Time
	DelayReasons     []string
	DestinationPort  *GeoLocation
}
