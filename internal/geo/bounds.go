package geo

import (
	"sort"
	"strings"

	"github.com/paulmach/orb"
)

func box(minLat, maxLat, minLon, maxLon float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

// StateBounds holds rough bounding boxes for US states (plus DC) and Canadian
// provinces. They are coarse on purpose and overlap near borders.
var StateBounds = map[string]orb.Bound{
	"AL": box(30.1, 35.0, -88.5, -84.9),
	"AK": box(51.0, 71.6, -179.0, -130.0),
	"AZ": box(31.3, 37.0, -114.8, -109.0),
	"AR": box(33.0, 36.5, -94.6, -89.6),
	"CA": box(32.5, 42.0, -124.5, -114.1),
	"CO": box(37.0, 41.0, -109.1, -102.0),
	"CT": box(40.9, 42.1, -73.7, -71.8),
	"DE": box(38.4, 39.7, -75.8, -75.0),
	"DC": box(38.8, 39.0, -77.2, -76.9),
	"FL": box(24.4, 31.0, -87.6, -80.0),
	"GA": box(30.3, 35.0, -85.6, -80.8),
	"HI": box(18.9, 22.2, -160.3, -154.8),
	"ID": box(41.9, 49.0, -117.2, -111.0),
	"IL": box(36.9, 42.5, -91.5, -87.0),
	"IN": box(37.7, 41.7, -88.1, -84.8),
	"IA": box(40.3, 43.5, -96.6, -90.1),
	"KS": box(37.0, 40.0, -102.0, -94.6),
	"KY": box(36.4, 39.1, -89.5, -81.9),
	"LA": box(28.9, 33.0, -94.0, -88.8),
	"ME": box(43.0, 47.5, -71.1, -66.9),
	"MD": box(37.9, 39.7, -79.5, -75.0),
	"MA": box(41.2, 42.9, -73.5, -69.9),
	"MI": box(41.7, 48.3, -90.4, -82.4),
	"MN": box(43.5, 49.4, -97.2, -89.5),
	"MS": box(30.1, 35.0, -91.7, -88.1),
	"MO": box(36.0, 40.6, -95.8, -89.1),
	"MT": box(44.3, 49.0, -116.1, -104.0),
	"NE": box(40.0, 43.0, -104.1, -95.3),
	"NV": box(35.0, 42.0, -120.0, -114.0),
	"NH": box(42.7, 45.3, -72.6, -70.6),
	"NJ": box(38.9, 41.4, -75.6, -73.9),
	"NM": box(31.3, 37.0, -109.1, -103.0),
	"NY": box(40.5, 45.0, -79.8, -71.8),
	"NC": box(33.8, 36.6, -84.3, -75.4),
	"ND": box(45.9, 49.0, -104.1, -96.6),
	"OH": box(38.4, 42.0, -84.8, -80.5),
	"OK": box(33.6, 37.0, -103.0, -94.4),
	"OR": box(41.9, 46.3, -124.6, -116.5),
	"PA": box(39.7, 42.3, -80.5, -74.7),
	"RI": box(41.1, 42.0, -71.9, -71.1),
	"SC": box(32.0, 35.2, -83.4, -78.5),
	"SD": box(42.4, 45.9, -104.1, -96.4),
	"TN": box(35.0, 36.7, -90.3, -81.6),
	"TX": box(25.8, 36.5, -106.7, -93.5),
	"UT": box(36.9, 42.0, -114.1, -109.0),
	"VT": box(42.7, 45.0, -73.4, -71.5),
	"VA": box(36.5, 39.5, -83.7, -75.2),
	"WA": box(45.5, 49.0, -124.8, -116.9),
	"WV": box(37.2, 40.6, -82.7, -77.7),
	"WI": box(42.4, 47.1, -92.9, -86.8),
	"WY": box(41.0, 45.0, -111.1, -104.0),

	"AB": box(49.0, 60.0, -120.0, -110.0),
	"BC": box(48.0, 60.0, -139.0, -114.0),
	"MB": box(49.0, 60.0, -102.0, -89.0),
	"NB": box(44.5, 48.0, -69.0, -63.0),
	"NL": box(46.5, 60.0, -67.8, -52.6),
	"NS": box(43.4, 47.0, -66.3, -59.7),
	"NT": box(60.0, 70.0, -136.0, -102.0),
	"NU": box(60.0, 83.0, -95.0, -61.0),
	"ON": box(41.7, 57.0, -95.2, -74.3),
	"PE": box(46.0, 47.1, -64.4, -62.0),
	"QC": box(45.0, 62.0, -79.8, -57.1),
	"SK": box(49.0, 60.0, -110.0, -101.0),
	"YT": box(60.0, 70.0, -141.0, -123.0),
}

var boundCodes = func() []string {
	codes := make([]string, 0, len(StateBounds))
	for c := range StateBounds {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}()

// InBounds reports whether p falls inside the rough box for code. The second
// value is false when the code is unknown.
func InBounds(code string, p orb.Point) (inside, known bool) {
	b, ok := StateBounds[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return false, false
	}
	return b.Contains(p), true
}

// GuessRegion returns the first region, in code order, whose box contains p.
func GuessRegion(p orb.Point) string {
	for _, c := range boundCodes {
		if StateBounds[c].Contains(p) {
			return c
		}
	}
	return ""
}
