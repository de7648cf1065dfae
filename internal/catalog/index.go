package catalog

import (
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// IndexMethod selects which storage/scoring strategy an index uses
// (spec §3 "Indexes").
type IndexMethod uint8

const (
	IndexBTree IndexMethod = iota
	IndexFullText
	IndexHNSW
)

// VectorDistance selects the HNSW distance function (spec §3).
type VectorDistance uint8

const (
	DistanceEuclidean VectorDistance = iota
	DistanceCosine
	DistanceManhattan
	DistanceHamming
)

// Index is a table-scoped secondary index definition. Only the fields
// relevant to Method are meaningful: Unique for IndexBTree, Analyzer
// for IndexFullText, Dimension/Distance/M/EfConstruction for IndexHNSW
// (spec §4.7 "Parameters (from the index definition): M (degree),
// ef_construction, distance kind, vector type").
type Index struct {
	NS, DB, TB, Name string
	Fields           []string
	Method           IndexMethod
	Unique           bool
	Analyzer         string
	Dimension        int
	Distance         VectorDistance
	M                int
	EfConstruction   int
}

// DefaultM and DefaultEfConstruction are the HNSW degree/beam-width
// used when an IndexHNSW definition leaves M/EfConstruction at zero,
// matching the values most HNSW implementations settle on as a
// recall/latency balance for moderate-dimension embeddings.
const (
	DefaultM              = 16
	DefaultEfConstruction = 200
)

func (ix Index) toValue() val.Value {
	fields := make([]val.Value, len(ix.Fields))
	for i, f := range ix.Fields {
		fields[i] = val.String(f)
	}
	return val.Object(map[string]val.Value{
		"ns":              val.String(ix.NS),
		"db":              val.String(ix.DB),
		"tb":              val.String(ix.TB),
		"name":            val.String(ix.Name),
		"fields":          val.Array(fields),
		"method":          val.Int(int64(ix.Method)),
		"unique":          val.Bool(ix.Unique),
		"analyzer":        val.String(ix.Analyzer),
		"dimension":       val.Int(int64(ix.Dimension)),
		"distance":        val.Int(int64(ix.Distance)),
		"m":               val.Int(int64(ix.M)),
		"ef_construction": val.Int(int64(ix.EfConstruction)),
	})
}

func indexFromValue(v val.Value) Index {
	obj, _ := v.AsObject()
	ns, _ := obj["ns"].AsString()
	db, _ := obj["db"].AsString()
	tb, _ := obj["tb"].AsString()
	name, _ := obj["name"].AsString()
	fieldsArr, _ := obj["fields"].AsArray()
	fields := make([]string, len(fieldsArr))
	for i, f := range fieldsArr {
		fields[i], _ = f.AsString()
	}
	method, _ := obj["method"].AsNumber()
	unique, _ := obj["unique"].AsBool()
	analyzer, _ := obj["analyzer"].AsString()
	dim, _ := obj["dimension"].AsNumber()
	dist, _ := obj["distance"].AsNumber()
	m, _ := obj["m"].AsNumber()
	efc, _ := obj["ef_construction"].AsNumber()
	return Index{
		NS: ns, DB: db, TB: tb, Name: name, Fields: fields,
		Method: IndexMethod(method.I), Unique: unique, Analyzer: analyzer,
		Dimension: int(dim.I), Distance: VectorDistance(dist.I),
		M: int(m.I), EfConstruction: int(efc.I),
	}
}

// DefineIndex requires the owning table to exist, rejects a redefine
// under the same name while an index of that name already exists
// (spec §7 IndexExists — callers that want a rebuild must REMOVE
// first), and bumps the table's cache version.
func DefineIndex(txn txnWriter, ix Index) (Index, error) {
	if _, err := GetTable(txn, ix.NS, ix.DB, ix.TB); err != nil {
		return Index{}, err
	}
	key, err := keys.IndexDef{NS: ix.NS, DB: ix.DB, TB: ix.TB, Name: ix.Name}.Encode()
	if err != nil {
		return Index{}, err
	}
	enc, err := val.Encode(ix.toValue())
	if err != nil {
		return Index{}, err
	}
	if err := txn.PutIfAbsent(key, enc); err != nil {
		return Index{}, errIndexExists(err)
	}
	if _, err := BumpTableVersion(txn, ix.NS, ix.DB, ix.TB); err != nil {
		return Index{}, err
	}
	return ix, nil
}

func GetIndex(txn txnReader, ns, db, tb, name string) (Index, error) {
	key, err := keys.IndexDef{NS: ns, DB: db, TB: tb, Name: name}.Encode()
	if err != nil {
		return Index{}, err
	}
	v, err := readEntity(txn, "catalog.GetIndex", key)
	if err != nil {
		return Index{}, err
	}
	return indexFromValue(v), nil
}

// RemoveIndex deletes the index definition, its full postings/element
// range, and bumps the table's cache version.
func RemoveIndex(txn txnWriter, ns, db, tb, name string) error {
	key, err := keys.IndexDef{NS: ns, DB: db, TB: tb, Name: name}.Encode()
	if err != nil {
		return err
	}
	if err := removeEntity(txn, key); err != nil {
		return err
	}
	lo, hi, err := keys.IndexScopeRange(ns, db, tb, name)
	if err != nil {
		return err
	}
	if err := txn.DelRange(lo, hi); err != nil {
		return err
	}
	_, err = BumpTableVersion(txn, ns, db, tb)
	return err
}

// ListIndexes enumerates every index defined on (ns, db, tb).
func ListIndexes(txn txnReader, ns, db, tb string) ([]Index, error) {
	lo, hi, err := keys.AllIndexDefsRange(ns, db, tb)
	if err != nil {
		return nil, err
	}
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Index, 0, len(rows))
	for _, row := range rows {
		v, err := val.Decode(row.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, indexFromValue(v))
	}
	return out, nil
}
