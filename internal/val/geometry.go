package val

import "fmt"

// GeometryKind enumerates the GeoJSON-style shapes spec §4.4's value
// tree names under "Geometry".
type GeometryKind uint8

const (
	GeometryPoint GeometryKind = iota
	GeometryLine
	GeometryPolygon
	GeometryMultiPoint
	GeometryMultiLine
	GeometryMultiPolygon
	GeometryCollection
)

// Point is a single (longitude, latitude) coordinate pair.
type Point struct{ Lon, Lat float64 }

// Geometry is a tagged union over the shapes above; only the field
// matching Kind is populated.
type Geometry struct {
	Kind       GeometryKind
	Point      Point
	Line       []Point
	Polygon    [][]Point // first ring is the exterior, rest are holes
	MultiPoint []Point
	MultiLine  [][]Point
	MultiPoly  [][][]Point
	Collection []Geometry
}

func (g Geometry) String() string {
	switch g.Kind {
	case GeometryPoint:
		return fmt.Sprintf("POINT(%g %g)", g.Point.Lon, g.Point.Lat)
	case GeometryLine:
		return fmt.Sprintf("LINESTRING(%d pts)", len(g.Line))
	case GeometryPolygon:
		return fmt.Sprintf("POLYGON(%d rings)", len(g.Polygon))
	case GeometryMultiPoint:
		return fmt.Sprintf("MULTIPOINT(%d pts)", len(g.MultiPoint))
	case GeometryMultiLine:
		return fmt.Sprintf("MULTILINESTRING(%d lines)", len(g.MultiLine))
	case GeometryMultiPolygon:
		return fmt.Sprintf("MULTIPOLYGON(%d polys)", len(g.MultiPoly))
	default:
		return fmt.Sprintf("GEOMETRYCOLLECTION(%d)", len(g.Collection))
	}
}
