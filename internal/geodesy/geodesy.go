// Package geodesy parses operator-traced plot outlines and measures their
// area on the Earth's surface. Outlines arrive as plain text, one vertex
// per line in "lat,lon" order, the format produced by the field survey app.
package geodesy

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

var (
	// ErrInsufficientPoints is returned for outlines with fewer than three vertices.
	ErrInsufficientPoints = errors.New("at least 3 coordinate points required")
	// ErrInvalidCoordinates is returned when a vertex line cannot be parsed
	// or is outside the valid lat/lon ranges.
	ErrInvalidCoordinates = errors.New("invalid coordinate format")
)

// ParseOutline parses newline-separated "lat,lon" vertex lines into a ring.
// Fields may be separated by a comma, whitespace, or both; blank lines are
// skipped. The returned ring is closed and uses lon/lat point order.
func ParseOutline(text string) (orb.Ring, error) {
	var ring orb.Ring
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lat, lon, err := parseVertex(line)
		if err != nil {
			return nil, err
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	if len(ring) < 3 {
		return nil, ErrInsufficientPoints
	}
	// Close the ring if the trace left it open.
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring, nil
}

// AreaM2 returns the unsigned area of the ring in square meters,
// computed on a sphere of the WGS84 semi-major radius (within ~0.3%
// of the true ellipsoidal area at mid latitudes). Vertex winding does
// not matter.
func AreaM2(ring orb.Ring) float64 {
	return math.Abs(geo.Area(ring))
}

func parseVertex(line string) (lat, lon float64, err error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCoordinates, line)
	}
	lat, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCoordinates, line)
	}
	lon, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCoordinates, line)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: %q out of range", ErrInvalidCoordinates, line)
	}
	return lat, lon, nil
}
