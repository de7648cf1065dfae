package val

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/warrendb/warrendb/internal/errs"
)

func mathFloat64bits(f float64) uint64     { return math.Float64bits(f) }
func mathFloat64frombits(u uint64) float64 { return math.Float64frombits(u) }

// Encode serialises a Value into a self-describing binary form for
// storage as a record/catalog payload (spec §3: "records are a binary
// encoding of a Value tree"). This is distinct from Collate, which
// trades self-description for bytewise sort order and is only used
// for index/key embedding.
func Encode(v Value) ([]byte, error) {
	buf := make([]byte, 0, 64)
	buf, err := appendValue(buf, v)
	if err != nil {
		return nil, errs.New(errs.KindMalformedKey, "val.Encode", err)
	}
	return buf, nil
}

// Decode parses bytes produced by Encode back into a Value.
func Decode(b []byte) (Value, error) {
	v, rest, err := readValue(b)
	if err != nil {
		return Value{}, errs.New(errs.KindMalformedKey, "val.Decode", err)
	}
	if len(rest) != 0 {
		return Value{}, errs.New(errs.KindMalformedKey, "val.Decode", fmt.Errorf("%d trailing bytes", len(rest)))
	}
	return v, nil
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	buf = append(buf, byte(v.kind))
	switch v.kind {
	case KindNone, KindNull:
		return buf, nil
	case KindBool:
		if v.b {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		return buf, nil
	case KindNumber:
		buf = append(buf, byte(v.num.Kind))
		switch v.num.Kind {
		case NumberInt:
			buf = appendU64(buf, uint64(v.num.I))
		case NumberFloat:
			buf = appendU64(buf, mathFloat64bits(v.num.F))
		case NumberDecimal:
			buf = appendStr(buf, v.num.Dec.String())
		}
		return buf, nil
	case KindString:
		return appendStr(buf, v.s), nil
	case KindDuration:
		return appendU64(buf, uint64(v.dur)), nil
	case KindDatetime:
		return appendU64(buf, uint64(v.dt.UnixNano())), nil
	case KindUUID:
		return append(buf, v.u[:]...), nil
	case KindBytes:
		return appendBlob(buf, v.by), nil
	case KindArray:
		buf = appendU32(buf, uint32(len(v.arr)))
		var err error
		for _, e := range v.arr {
			buf, err = appendValue(buf, e)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case KindObject:
		keys := v.SortedObjectKeys()
		buf = appendU32(buf, uint32(len(keys)))
		var err error
		for _, k := range keys {
			buf = appendStr(buf, k)
			buf, err = appendValue(buf, v.obj[k])
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case KindRecordID:
		return appendRecordID(buf, *v.rid)
	case KindGeometry:
		return appendGeometry(buf, *v.geo)
	case KindRange:
		return appendRange(buf, *v.rng)
	default:
		return nil, fmt.Errorf("val.Encode: unknown kind %d", v.kind)
	}
}

func readValue(b []byte) (Value, []byte, error) {
	if len(b) < 1 {
		return Value{}, nil, fmt.Errorf("truncated value tag")
	}
	kind := Kind(b[0])
	b = b[1:]
	switch kind {
	case KindNone:
		return None(), b, nil
	case KindNull:
		return Null(), b, nil
	case KindBool:
		if len(b) < 1 {
			return Value{}, nil, fmt.Errorf("truncated bool")
		}
		return Bool(b[0] != 0), b[1:], nil
	case KindNumber:
		if len(b) < 1 {
			return Value{}, nil, fmt.Errorf("truncated number kind")
		}
		nk := NumberKind(b[0])
		b = b[1:]
		switch nk {
		case NumberInt:
			u, rest, err := readU64(b)
			if err != nil {
				return Value{}, nil, err
			}
			return Int(int64(u)), rest, nil
		case NumberFloat:
			u, rest, err := readU64(b)
			if err != nil {
				return Value{}, nil, err
			}
			return Float(mathFloat64frombits(u)), rest, nil
		case NumberDecimal:
			s, rest, err := readStr(b)
			if err != nil {
				return Value{}, nil, err
			}
			d, err := DecimalFromString(s)
			if err != nil {
				return Value{}, nil, err
			}
			return DecimalV(d), rest, nil
		default:
			return Value{}, nil, fmt.Errorf("unknown number kind %d", nk)
		}
	case KindString:
		s, rest, err := readStr(b)
		if err != nil {
			return Value{}, nil, err
		}
		return String(s), rest, nil
	case KindDuration:
		u, rest, err := readU64(b)
		if err != nil {
			return Value{}, nil, err
		}
		return Dur(time.Duration(u)), rest, nil
	case KindDatetime:
		u, rest, err := readU64(b)
		if err != nil {
			return Value{}, nil, err
		}
		return Datetime(time.Unix(0, int64(u)).UTC()), rest, nil
	case KindUUID:
		if len(b) < 16 {
			return Value{}, nil, fmt.Errorf("truncated uuid")
		}
		var u uuid.UUID
		copy(u[:], b[:16])
		return UUID(u), b[16:], nil
	case KindBytes:
		bs, rest, err := readBlob(b)
		if err != nil {
			return Value{}, nil, err
		}
		return Bytes(bs), rest, nil
	case KindArray:
		n, rest, err := readU32(b)
		if err != nil {
			return Value{}, nil, err
		}
		arr := make([]Value, 0, n)
		for i := uint32(0); i < n; i++ {
			var elem Value
			elem, rest, err = readValue(rest)
			if err != nil {
				return Value{}, nil, err
			}
			arr = append(arr, elem)
		}
		return Array(arr), rest, nil
	case KindObject:
		n, rest, err := readU32(b)
		if err != nil {
			return Value{}, nil, err
		}
		obj := make(map[string]Value, n)
		for i := uint32(0); i < n; i++ {
			var k string
			k, rest, err = readStr(rest)
			if err != nil {
				return Value{}, nil, err
			}
			var elem Value
			elem, rest, err = readValue(rest)
			if err != nil {
				return Value{}, nil, err
			}
			obj[k] = elem
		}
		return Object(obj), rest, nil
	case KindRecordID:
		rid, rest, err := readRecordID(b)
		if err != nil {
			return Value{}, nil, err
		}
		return FromRecordID(rid), rest, nil
	case KindGeometry:
		g, rest, err := readGeometry(b)
		if err != nil {
			return Value{}, nil, err
		}
		return FromGeometry(g), rest, nil
	case KindRange:
		r, rest, err := readRange(b)
		if err != nil {
			return Value{}, nil, err
		}
		return FromRange(r), rest, nil
	default:
		return Value{}, nil, fmt.Errorf("unknown value kind %d", kind)
	}
}

func appendRecordID(buf []byte, r RecordID) ([]byte, error) {
	buf = appendStr(buf, r.Table)
	buf = append(buf, byte(r.Kind))
	switch r.Kind {
	case RecordIDString:
		return appendStr(buf, r.Str), nil
	case RecordIDInt:
		return appendU64(buf, uint64(r.Int)), nil
	case RecordIDUUID:
		return append(buf, r.UUID[:]...), nil
	case RecordIDObject:
		return appendValue(buf, Object(r.Obj))
	case RecordIDArray:
		return appendValue(buf, Array(r.Arr))
	case RecordIDRange:
		rng := Range{}
		if r.Rng != nil {
			rng = *r.Rng
		}
		return appendRange(buf, rng)
	default:
		return nil, fmt.Errorf("unknown record id kind %d", r.Kind)
	}
}

func readRecordID(b []byte) (RecordID, []byte, error) {
	table, rest, err := readStr(b)
	if err != nil {
		return RecordID{}, nil, err
	}
	if len(rest) < 1 {
		return RecordID{}, nil, fmt.Errorf("truncated record id kind")
	}
	kind := RecordIDKind(rest[0])
	rest = rest[1:]
	switch kind {
	case RecordIDString:
		s, rest, err := readStr(rest)
		if err != nil {
			return RecordID{}, nil, err
		}
		return RecordID{Table: table, Kind: kind, Str: s}, rest, nil
	case RecordIDInt:
		u, rest, err := readU64(rest)
		if err != nil {
			return RecordID{}, nil, err
		}
		return RecordID{Table: table, Kind: kind, Int: int64(u)}, rest, nil
	case RecordIDUUID:
		if len(rest) < 16 {
			return RecordID{}, nil, fmt.Errorf("truncated record id uuid")
		}
		var u uuid.UUID
		copy(u[:], rest[:16])
		return RecordID{Table: table, Kind: kind, UUID: u}, rest[16:], nil
	case RecordIDObject:
		v, rest, err := readValue(rest)
		if err != nil {
			return RecordID{}, nil, err
		}
		obj, _ := v.AsObject()
		return RecordID{Table: table, Kind: kind, Obj: obj}, rest, nil
	case RecordIDArray:
		v, rest, err := readValue(rest)
		if err != nil {
			return RecordID{}, nil, err
		}
		arr, _ := v.AsArray()
		return RecordID{Table: table, Kind: kind, Arr: arr}, rest, nil
	case RecordIDRange:
		r, rest, err := readRange(rest)
		if err != nil {
			return RecordID{}, nil, err
		}
		return RecordID{Table: table, Kind: kind, Rng: &r}, rest, nil
	default:
		return RecordID{}, nil, fmt.Errorf("unknown record id kind %d", kind)
	}
}

func appendRange(buf []byte, r Range) ([]byte, error) {
	var err error
	buf, err = appendValue(buf, r.Begin)
	if err != nil {
		return nil, err
	}
	buf = appendBool(buf, r.BeginInclusive)
	buf, err = appendValue(buf, r.End)
	if err != nil {
		return nil, err
	}
	buf = appendBool(buf, r.EndInclusive)
	return buf, nil
}

func readRange(b []byte) (Range, []byte, error) {
	begin, rest, err := readValue(b)
	if err != nil {
		return Range{}, nil, err
	}
	beginIncl, rest, err := readBool(rest)
	if err != nil {
		return Range{}, nil, err
	}
	end, rest, err := readValue(rest)
	if err != nil {
		return Range{}, nil, err
	}
	endIncl, rest, err := readBool(rest)
	if err != nil {
		return Range{}, nil, err
	}
	return Range{Begin: begin, BeginInclusive: beginIncl, End: end, EndInclusive: endIncl}, rest, nil
}

func appendGeometry(buf []byte, g Geometry) ([]byte, error) {
	buf = append(buf, byte(g.Kind))
	switch g.Kind {
	case GeometryPoint:
		return appendPoint(buf, g.Point), nil
	case GeometryLine:
		return appendPoints(buf, g.Line), nil
	case GeometryPolygon:
		return appendRings(buf, g.Polygon), nil
	case GeometryMultiPoint:
		return appendPoints(buf, g.MultiPoint), nil
	case GeometryMultiLine:
		buf = appendU32(buf, uint32(len(g.MultiLine)))
		for _, l := range g.MultiLine {
			buf = appendPoints(buf, l)
		}
		return buf, nil
	case GeometryMultiPolygon:
		buf = appendU32(buf, uint32(len(g.MultiPoly)))
		for _, p := range g.MultiPoly {
			buf = appendRings(buf, p)
		}
		return buf, nil
	case GeometryCollection:
		buf = appendU32(buf, uint32(len(g.Collection)))
		var err error
		for _, c := range g.Collection {
			buf, err = appendGeometry(buf, c)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("unknown geometry kind %d", g.Kind)
	}
}

func readGeometry(b []byte) (Geometry, []byte, error) {
	if len(b) < 1 {
		return Geometry{}, nil, fmt.Errorf("truncated geometry kind")
	}
	kind := GeometryKind(b[0])
	b = b[1:]
	switch kind {
	case GeometryPoint:
		p, rest, err := readPoint(b)
		return Geometry{Kind: kind, Point: p}, rest, err
	case GeometryLine:
		pts, rest, err := readPoints(b)
		return Geometry{Kind: kind, Line: pts}, rest, err
	case GeometryPolygon:
		rings, rest, err := readRings(b)
		return Geometry{Kind: kind, Polygon: rings}, rest, err
	case GeometryMultiPoint:
		pts, rest, err := readPoints(b)
		return Geometry{Kind: kind, MultiPoint: pts}, rest, err
	case GeometryMultiLine:
		n, rest, err := readU32(b)
		if err != nil {
			return Geometry{}, nil, err
		}
		lines := make([][]Point, 0, n)
		for i := uint32(0); i < n; i++ {
			var l []Point
			l, rest, err = readPoints(rest)
			if err != nil {
				return Geometry{}, nil, err
			}
			lines = append(lines, l)
		}
		return Geometry{Kind: kind, MultiLine: lines}, rest, nil
	case GeometryMultiPolygon:
		n, rest, err := readU32(b)
		if err != nil {
			return Geometry{}, nil, err
		}
		polys := make([][][]Point, 0, n)
		for i := uint32(0); i < n; i++ {
			var rings [][]Point
			rings, rest, err = readRings(rest)
			if err != nil {
				return Geometry{}, nil, err
			}
			polys = append(polys, rings)
		}
		return Geometry{Kind: kind, MultiPoly: polys}, rest, nil
	case GeometryCollection:
		n, rest, err := readU32(b)
		if err != nil {
			return Geometry{}, nil, err
		}
		coll := make([]Geometry, 0, n)
		for i := uint32(0); i < n; i++ {
			var g Geometry
			g, rest, err = readGeometry(rest)
			if err != nil {
				return Geometry{}, nil, err
			}
			coll = append(coll, g)
		}
		return Geometry{Kind: kind, Collection: coll}, rest, nil
	default:
		return Geometry{}, nil, fmt.Errorf("unknown geometry kind %d", kind)
	}
}

func appendPoint(buf []byte, p Point) []byte {
	buf = appendU64(buf, mathFloat64bits(p.Lon))
	buf = appendU64(buf, mathFloat64bits(p.Lat))
	return buf
}

func readPoint(b []byte) (Point, []byte, error) {
	lonBits, rest, err := readU64(b)
	if err != nil {
		return Point{}, nil, err
	}
	latBits, rest, err := readU64(rest)
	if err != nil {
		return Point{}, nil, err
	}
	return Point{Lon: mathFloat64frombits(lonBits), Lat: mathFloat64frombits(latBits)}, rest, nil
}

func appendPoints(buf []byte, pts []Point) []byte {
	buf = appendU32(buf, uint32(len(pts)))
	for _, p := range pts {
		buf = appendPoint(buf, p)
	}
	return buf
}

func readPoints(b []byte) ([]Point, []byte, error) {
	n, rest, err := readU32(b)
	if err != nil {
		return nil, nil, err
	}
	pts := make([]Point, 0, n)
	for i := uint32(0); i < n; i++ {
		var p Point
		p, rest, err = readPoint(rest)
		if err != nil {
			return nil, nil, err
		}
		pts = append(pts, p)
	}
	return pts, rest, nil
}

// appendRings encodes a polygon's list-of-rings shape (each ring a
// []Point; the first ring is the exterior, the rest holes).
func appendRings(buf []byte, rings [][]Point) []byte {
	buf = appendU32(buf, uint32(len(rings)))
	for _, r := range rings {
		buf = appendPoints(buf, r)
	}
	return buf
}

func readRings(b []byte) ([][]Point, []byte, error) {
	n, rest, err := readU32(b)
	if err != nil {
		return nil, nil, err
	}
	rings := make([][]Point, 0, n)
	for i := uint32(0); i < n; i++ {
		var pts []Point
		pts, rest, err = readPoints(rest)
		if err != nil {
			return nil, nil, err
		}
		rings = append(rings, pts)
	}
	return rings, rest, nil
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func readU32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, fmt.Errorf("truncated uint32")
	}
	return binary.BigEndian.Uint32(b[:4]), b[4:], nil
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func readU64(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, fmt.Errorf("truncated uint64")
	}
	return binary.BigEndian.Uint64(b[:8]), b[8:], nil
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func readBool(b []byte) (bool, []byte, error) {
	if len(b) < 1 {
		return false, nil, fmt.Errorf("truncated bool")
	}
	return b[0] != 0, b[1:], nil
}

func appendStr(buf []byte, s string) []byte { return appendBlob(buf, []byte(s)) }

func readStr(b []byte) (string, []byte, error) {
	bs, rest, err := readBlob(b)
	if err != nil {
		return "", nil, err
	}
	return string(bs), rest, nil
}

func appendBlob(buf []byte, v []byte) []byte {
	buf = appendU32(buf, uint32(len(v)))
	return append(buf, v...)
}

func readBlob(b []byte) ([]byte, []byte, error) {
	n, rest, err := readU32(b)
	if err != nil {
		return nil, nil, err
	}
	if uint32(len(rest)) < n {
		return nil, nil, fmt.Errorf("truncated blob body")
	}
	return rest[:n], rest[n:], nil
}
