package eml

import (
	"strconv"
	"strings"
)

// Geometry types of a geographic coverage.
const (
	GeomPolygon  = "polygon"
	GeomPoint    = "point"
	GeomEnvelope = "envelope"
)

// metersPer converts EML altitude units to meters.
var metersPer = map[string]float64{
	"meter":           1,
	"decimeter":       1e-1,
	"dekameter":       1e1,
	"hectometer":      1e2,
	"kilometer":       1e3,
	"megameter":       1e6,
	"Foot_US":         0.3048006,
	"foot":            0.3048,
	"Foot_Gold_Coast": 0.3047997,
	"fathom":          1.8288,
	"nauticalMile":    1852,
	"yard":            0.9144,
	"Yard_Indian":     0.914398530744440774,
	"Link_Clarke":     0.2011661949,
	"Yard_Sears":      0.91439841461602867,
	"mile":            1609.344,
}

// Coverage wraps a geographicCoverage element.
type Coverage struct {
	Node
}

// Bounds is a bounding box in decimal degrees with optional altitudes.
type Bounds struct {
	West, East, North, South float64
	AltitudeMin, AltitudeMax *float64
}

// GeographicCoverages returns every geographicCoverage in the document.
func (d *Document) GeographicCoverages() []Coverage {
	var res []Coverage
	for _, n := range d.Elements("geographicCoverage") {
		res = append(res, Coverage{n})
	}
	return res
}

// Description is the free-text geographicDescription.
func (c Coverage) Description() string {
	return c.ChildText("geographicDescription")
}

// Bounds returns the bounding coordinates; ok is false when any of the four
// coordinates is missing or not numeric. Altitudes are converted to meters.
func (c Coverage) Bounds() (b Bounds, ok bool) {
	bc, found := c.Child("boundingCoordinates")
	if !found {
		return Bounds{}, false
	}
	coords := [4]*float64{&b.West, &b.East, &b.North, &b.South}
	for i, name := range []string{
		"westBoundingCoordinate", "eastBoundingCoordinate",
		"northBoundingCoordinate", "southBoundingCoordinate",
	} {
		v, err := strconv.ParseFloat(bc.ChildText(name), 64)
		if err != nil {
			return Bounds{}, false
		}
		*coords[i] = v
	}
	if alt, found := bc.Child("boundingAltitudes"); found {
		units := alt.ChildText("altitudeUnits")
		b.AltitudeMin = altitude(alt.ChildText("altitudeMinimum"), units)
		b.AltitudeMax = altitude(alt.ChildText("altitudeMaximum"), units)
	}
	return b, true
}

func altitude(raw, units string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	if f, ok := metersPer[units]; ok {
		v *= f
	}
	return &v
}

// GeomType classifies the coverage as polygon, point or envelope. A polygon
// wins over the bounding box that EML requires alongside it.
func (c Coverage) GeomType() string {
	if len(c.Descendants("datasetGPolygon")) > 0 {
		return GeomPolygon
	}
	b, ok := c.Bounds()
	if !ok {
		return ""
	}
	if b.West == b.East && b.North == b.South {
		return GeomPoint
	}
	return GeomEnvelope
}

// OuterRing returns the polygon's outer ring as "lon,lat" pairs.
func (c Coverage) OuterRing() string {
	return c.DescendantText("datasetGPolygonOuterGRing")
}
