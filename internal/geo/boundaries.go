package geo

import (
	"fmt"
	"sort"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// region is one boundary feature from a shapefile together with its bbox.
type region struct {
	Code  string
	Shape orb.MultiPolygon
	Bound orb.Bound
}

// Boundaries is an in-memory index of administrative polygons keyed by code,
// such as the Census cartographic state boundaries.
type Boundaries struct {
	regions []region
	byCode  map[string][]int
}

// LoadBoundaries reads a polygon shapefile in geographic coordinates and keys
// each feature by the value of codeField (e.g. "STUSPS").
func LoadBoundaries(path, codeField string) (*Boundaries, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fieldIdx := -1
	for i, f := range r.Fields() {
		if strings.EqualFold(f.String(), codeField) {
			fieldIdx = i
			break
		}
	}
	if fieldIdx < 0 {
		return nil, fmt.Errorf("shapefile %s has no field %q", path, codeField)
	}

	b := &Boundaries{byCode: make(map[string][]int)}
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		mp := toMultiPolygon(poly)
		if len(mp) == 0 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(r.ReadAttribute(idx, fieldIdx)))
		b.byCode[code] = append(b.byCode[code], len(b.regions))
		b.regions = append(b.regions, region{Code: code, Shape: mp, Bound: mp.Bound()})
	}
	return b, nil
}

// toMultiPolygon splits the flat point list into rings. Shapefile outer rings
// are clockwise; counter-clockwise rings are holes of the preceding outer ring.
func toMultiPolygon(poly *shp.Polygon) orb.MultiPolygon {
	var mp orb.MultiPolygon
	numParts := len(poly.Parts)
	for partIdx := 0; partIdx < numParts; partIdx++ {
		start := poly.Parts[partIdx]
		end := int32(len(poly.Points))
		if partIdx+1 < numParts {
			end = poly.Parts[partIdx+1]
		}
		ring := make(orb.Ring, 0, int(end-start))
		for i := start; i < end; i++ {
			pt := poly.Points[i]
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		if len(ring) < 4 {
			continue
		}
		if ring.Orientation() == orb.CW || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		last := len(mp) - 1
		mp[last] = append(mp[last], ring)
	}
	return mp
}

// Len returns the number of loaded features.
func (b *Boundaries) Len() int { return len(b.regions) }

// Contains reports whether p lies inside any feature for code. known is false
// when the shapefile has no feature with that code.
func (b *Boundaries) Contains(code string, p orb.Point) (inside, known bool) {
	ids, ok := b.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return false, false
	}
	for _, i := range ids {
		if b.regions[i].contains(p) {
			return true, true
		}
	}
	return false, true
}

// Locate returns the code of the first feature containing p, or "".
func (b *Boundaries) Locate(p orb.Point) string {
	for _, r := range b.regions {
		if r.contains(p) {
			return r.Code
		}
	}
	return ""
}

// Codes returns the distinct feature codes in sorted order.
func (b *Boundaries) Codes() []string {
	codes := make([]string, 0, len(b.byCode))
	for c := range b.byCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func (r region) contains(p orb.Point) bool {
	if !r.Bound.Contains(p) {
		return false
	}
	return planar.MultiPolygonContains(r.Shape, p)
}

// RegionChecker answers whether a point is plausibly inside a state or province.
type RegionChecker interface {
	Contains(code string, p orb.Point) (inside, known bool)
	Locate(p orb.Point) string
}

type roughBounds struct{}

func (roughBounds) Contains(code string, p orb.Point) (bool, bool) { return InBounds(code, p) }
func (roughBounds) Locate(p orb.Point) string                      { return GuessRegion(p) }

// RoughBounds is the RegionChecker backed by StateBounds.
var RoughBounds RegionChecker = roughBounds{}
