// Package geo projects position fixes onto a sphere and derives
// proximity and heading from them.
package geo

import (
	"math"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/spatial/r3"
)

// EarthRadius in kilometers.
const EarthRadius = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// ToCartesian projects lat/lon degrees onto a sphere of EarthRadius.
func ToCartesian(lat, lon float64) r3.Vec {
	latRad, lonRad := lat*math.Pi/180, lon*math.Pi/180
	return r3.Vec{
		X: EarthRadius * math.Cos(latRad) * math.Cos(lonRad),
		Y: EarthRadius * math.Cos(latRad) * math.Sin(lonRad),
		Z: EarthRadius * math.Sin(latRad),
	}
}

// Cartesian projects p.
func (p Point) Cartesian() r3.Vec {
	return ToCartesian(p.Lat, p.Lon)
}

// Distance is the chord length between two projected points, in kilometers.
func Distance(p1, p2 r3.Vec) float64 {
	return r3.Norm(r3.Sub(p2, p1))
}

// DistanceBetween projects both fixes and returns their chord distance.
func DistanceBetween(a, b Point) float64 {
	if a == b {
		return 0
	}
	return Distance(a.Cartesian(), b.Cartesian())
}

// Heading is the planar bearing from prev to curr in degrees, [0, 360).
func Heading(prev, curr Point) float64 {
	dx, dy := curr.Lon-prev.Lon, curr.Lat-prev.Lat
	h := 90 + math.Atan2(-dy, dx)*180/math.Pi
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h -= 360
	}
	return h
}

// Track keeps the last two fixes to report a heading.
type Track struct {
	prev, curr Point
	count      int
}

// NewTrack creates an empty Track. With seedOrigin the history starts
// with (0,0), so the first fix already yields a heading measured from
// the origin. That heading is meaningless and only kept for
// compatibility with stations expecting it.
func NewTrack(seedOrigin bool) *Track {
	t := &Track{}
	if seedOrigin {
		glog.Warning("heading track seeded with (0,0), the first heading is not meaningful")
		t.count = 1
	}
	return t
}

// Add appends a fix.
func (t *Track) Add(p Point) {
	t.prev, t.curr = t.curr, p
	t.count++
}

// Len returns the number of fixes, including a seeded origin.
func (t *Track) Len() int {
	return t.count
}

// Heading returns the heading between the last two fixes, false when
// fewer than two are known.
func (t *Track) Heading() (float64, bool) {
	if t.count < 2 {
		return 0, false
	}
	return Heading(t.prev, t.curr), true
}
