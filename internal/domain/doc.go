// Package domain models natural-event records published by NASA's Earth
// Observatory Natural Event Tracker (EONET), API v2.1.
//
// # Data Source
//
// The provider exposes two documents used here:
//
//	GET {base}/events?status=open&days=20     → {"events": [...]}
//	GET {base}/categories                     → {"categories": [...]}
//	GET {base}/categories/{id}?status=closed  → {"events": [...]}
//
// Every event carries its categories by value, a list of sources (id + url),
// and a list of geometries. Each geometry is a timestamped observation of where
// the event was seen. The number of geometries is used as the "affected places"
// count when filtering.
//
// # Conventions
//
// Timestamps are strict UTC in the form 2006-01-02T15:04:05Z; anything else
// (offsets, fractional seconds) is rejected with a [DecodeError].
//
// Point coordinates are read as [latitude, longitude]. Only Point geometries
// carry [Coordinates]; Polygon geometries keep their own representation and are
// not modelled further.
//
// # Status
//
// An event without a "closed" timestamp is open. [StatusAll] exists only at query
// time and means open followed by closed; it never appears on a decoded [Event].
package domain
