package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the only timestamp form the provider uses.
const TimestampLayout = "2006-01-02T15:04:05Z"

// object is a JSON object with its members left undecoded so that presence
// can be told apart from zero values.
type object map[string]json.RawMessage

// DecodeEvents parses a provider document and returns its "events" array.
// A document without an "events" key yields an empty list.
func DecodeEvents(data []byte) ([]Event, error) {
	elems, err := topLevelArray(data, "events")
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(elems))
	for i, raw := range elems {
		ev, err := decodeEvent(raw, fmt.Sprintf("events[%d]", i))
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// DecodeCategories parses a provider document and returns its "categories"
// array. A document without a "categories" key yields an empty list.
func DecodeCategories(data []byte) ([]Category, error) {
	elems, err := topLevelArray(data, "categories")
	if err != nil {
		return nil, err
	}
	return decodeCategoryList(elems, "categories")
}

// ParseTimestamp parses s strictly as TimestampLayout.
func ParseTimestamp(s string) (time.Time, error) {
	// time.Parse tolerates fractional seconds the layout does not mention.
	if len(s) != len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("want layout %s", TimestampLayout)
	}
	return time.Parse(TimestampLayout, s)
}

func topLevelArray(data []byte, key string) ([]json.RawMessage, error) {
	var doc object
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Kind: DecodeSyntax, Err: err}
	}
	raw, ok := present(doc, key)
	if !ok {
		return nil, nil
	}
	return array(raw, key)
}

func decodeEvent(raw json.RawMessage, path string) (Event, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return Event{}, err
	}

	var ev Event
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"id", &ev.ID},
		{"title", &ev.Title},
		{"description", &ev.Description},
		{"link", &ev.Link},
	} {
		if *f.dst, err = requiredText(obj, f.name, path); err != nil {
			return Event{}, err
		}
	}

	categories, err := optionalArray(obj, "categories", path)
	if err != nil {
		return Event{}, err
	}
	if ev.Categories, err = decodeCategoryList(categories, path+".categories"); err != nil {
		return Event{}, err
	}

	sources, err := optionalArray(obj, "sources", path)
	if err != nil {
		return Event{}, err
	}
	ev.Sources = make([]Source, 0, len(sources))
	for i, s := range sources {
		var src Source
		if err := json.Unmarshal(s, &src); err != nil {
			return Event{}, &DecodeError{Kind: DecodeInvalidField, Field: fmt.Sprintf("%s.sources[%d]", path, i), Err: err}
		}
		ev.Sources = append(ev.Sources, src)
	}

	geometries, err := optionalArray(obj, "geometries", path)
	if err != nil {
		return Event{}, err
	}
	ev.Geometries = make([]Geometry, 0, len(geometries))
	for i, g := range geometries {
		geom, err := decodeGeometry(g, fmt.Sprintf("%s.geometries[%d]", path, i))
		if err != nil {
			return Event{}, err
		}
		ev.Geometries = append(ev.Geometries, geom)
	}

	if rawClosed, ok := present(obj, "closed"); ok {
		closed, err := timestamp(rawClosed, path+".closed")
		if err != nil {
			return Event{}, err
		}
		ev.Closed = &closed
	}

	return ev, nil
}

func decodeCategoryList(elems []json.RawMessage, path string) ([]Category, error) {
	categories := make([]Category, 0, len(elems))
	for i, raw := range elems {
		c, err := decodeCategory(raw, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func decodeCategory(raw json.RawMessage, path string) (Category, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return Category{}, err
	}

	var c Category
	rawID, ok := present(obj, "id")
	if !ok {
		return Category{}, &DecodeError{Kind: DecodeMissingField, Field: path + ".id"}
	}
	if c.ID, err = integer(rawID, path+".id"); err != nil {
		return Category{}, err
	}
	if c.Title, err = requiredText(obj, "title", path); err != nil {
		return Category{}, err
	}
	if rawDesc, ok := present(obj, "description"); ok {
		desc, err := text(rawDesc, path+".description")
		if err != nil {
			return Category{}, err
		}
		c.Description = &desc
	}
	if rawLink, ok := present(obj, "link"); ok {
		link, err := text(rawLink, path+".link")
		if err != nil {
			return Category{}, err
		}
		c.Link = &link
	}
	return c, nil
}

func decodeGeometry(raw json.RawMessage, path string) (Geometry, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return Geometry{}, err
	}

	var g Geometry
	if rawID, ok := present(obj, "id"); ok {
		id, err := integer(rawID, path+".id")
		if err != nil {
			return Geometry{}, err
		}
		g.ID = &id
	}

	rawDate, ok := present(obj, "date")
	if !ok {
		return Geometry{}, &DecodeError{Kind: DecodeMissingField, Field: path + ".date"}
	}
	if g.Date, err = timestamp(rawDate, path+".date"); err != nil {
		return Geometry{}, err
	}

	typ, err := requiredText(obj, "type", path)
	if err != nil {
		return Geometry{}, err
	}
	var known bool
	if g.Type, known = ParseGeometryType(typ); !known {
		return Geometry{}, &DecodeError{Kind: DecodeUnknownGeometryType, Field: path + ".type", Value: typ}
	}

	// Only points are read as coordinates; other shapes keep their own nesting.
	if g.Type == GeometryPoint {
		coords, err := pointCoordinates(obj, path+".coordinates")
		if err != nil {
			return Geometry{}, err
		}
		g.Coordinates = &coords
	}
	return g, nil
}

func pointCoordinates(obj object, path string) (Coordinates, error) {
	raw, ok := present(obj, "coordinates")
	if !ok {
		return Coordinates{}, &DecodeError{Kind: DecodeMissingField, Field: path}
	}
	var pair []float64
	if err := json.Unmarshal(raw, &pair); err != nil {
		return Coordinates{}, &DecodeError{Kind: DecodeInvalidCoordinates, Field: path, Value: string(raw), Err: err}
	}
	if len(pair) < 2 {
		return Coordinates{}, &DecodeError{Kind: DecodeInvalidCoordinates, Field: path, Value: string(raw)}
	}
	return Coordinates{Latitude: pair[0], Longitude: pair[1]}, nil
}

// present returns the member named key unless it is absent or JSON null.
func present(obj object, key string) (json.RawMessage, bool) {
	raw, ok := obj[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func asObject(raw json.RawMessage, path string) (object, error) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, &DecodeError{Kind: DecodeInvalidField, Field: path, Err: err}
	}
	return obj, nil
}

func array(raw json.RawMessage, path string) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &DecodeError{Kind: DecodeInvalidField, Field: path, Err: err}
	}
	return elems, nil
}

func optionalArray(obj object, key, path string) ([]json.RawMessage, error) {
	raw, ok := present(obj, key)
	if !ok {
		return nil, nil
	}
	return array(raw, path+"."+key)
}

func requiredText(obj object, key, path string) (string, error) {
	raw, ok := present(obj, key)
	if !ok {
		return "", &DecodeError{Kind: DecodeMissingField, Field: path + "." + key}
	}
	return text(raw, path+"."+key)
}

// text reads a scalar as text. Numbers and booleans keep their literal form.
func text(raw json.RawMessage, path string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "", &DecodeError{Kind: DecodeInvalidField, Field: path, Value: trimmed}
	}
	return trimmed, nil
}

// integer accepts a JSON number or a numeric string.
func integer(raw json.RawMessage, path string) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	s, err := text(raw, path)
	if err != nil {
		return 0, err
	}
	n, err = strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &DecodeError{Kind: DecodeInvalidField, Field: path, Value: s, Err: err}
	}
	return n, nil
}

func timestamp(raw json.RawMessage, path string) (time.Time, error) {
	s, err := text(raw, path)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}, &DecodeError{Kind: DecodeInvalidTimestamp, Field: path, Value: s, Err: err}
	}
	return t, nil
}
