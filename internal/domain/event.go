package domain

import (
	"fmt"
	"time"
)

// EventStatus selects which events the provider returns.
type EventStatus string

const (
	StatusOpen   EventStatus = "open"
	StatusClosed EventStatus = "closed"
	// StatusAll is a query-time value: open events followed by closed events.
	StatusAll EventStatus = "all"
)

// ParseEventStatus validates a status string coming from an inbound request.
func ParseEventStatus(s string) (EventStatus, error) {
	switch EventStatus(s) {
	case StatusOpen, StatusClosed, StatusAll:
		return EventStatus(s), nil
	default:
		return "", fmt.Errorf("invalid event status %q: want open, closed or all", s)
	}
}

// QueryParameterType is a query parameter name accepted by the provider.
type QueryParameterType string

const (
	ParamStatus QueryParameterType = "status"
	ParamDays   QueryParameterType = "days"
	ParamLimit  QueryParameterType = "limit"
	ParamSource QueryParameterType = "source"
)

// GeometryType is the closed set of geometry shapes in the EONET v2.1 event
// schema. Any other shape is rejected by the decoder with a DecodeError of
// kind DecodeUnknownGeometryType.
type GeometryType string

const (
	GeometryPoint   GeometryType = "Point"
	GeometryPolygon GeometryType = "Polygon"
)

// ParseGeometryType matches s against the known geometry shapes.
func ParseGeometryType(s string) (GeometryType, bool) {
	switch GeometryType(s) {
	case GeometryPoint, GeometryPolygon:
		return GeometryType(s), true
	default:
		return "", false
	}
}

// Category is an event classification such as "Wildfires" or "Severe Storms".
// Description and Link are nil when the provider omitted them.
type Category struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Link        *string `json:"link,omitempty"`
}

// Source points at the upstream record an event was built from.
type Source struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geometry is a single timestamped observation of an event.
// Coordinates is non-nil exactly when Type is GeometryPoint.
type Geometry struct {
	ID          *int         `json:"id,omitempty"`
	Date        time.Time    `json:"date"`
	Type        GeometryType `json:"type"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Event is a natural event as reported by the provider.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
	Categories  []Category `json:"categories"`
	Sources     []Source   `json:"sources"`
	Geometries  []Geometry `json:"geometries"`
	Closed      *time.Time `json:"closed,omitempty"`
}

// AffectedPlaces is the number of observed geometries.
func (e Event) AffectedPlaces() int {
	return len(e.Geometries)
}

// Status reports whether the event is open or closed.
func (e Event) Status() EventStatus {
	if e.Closed != nil {
		return StatusClosed
	}
	return StatusOpen
}

// WithGeometryDates returns a copy of e whose geometries are all dated t.
// The receiver's geometry slice is left untouched.
func (e Event) WithGeometryDates(t time.Time) Event {
	if len(e.Geometries) == 0 {
		return e
	}
	geometries := make([]Geometry, len(e.Geometries))
	copy(geometries, e.Geometries)
	for i := range geometries {
		geometries[i].Date = t
	}
	e.Geometries = geometries
	return e
}
