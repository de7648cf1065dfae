package val

import (
	"fmt"

	"github.com/google/uuid"
)

// RecordIDKind selects which of the typed record-id representations
// spec §3 allows: "string | int | uuid | object | array | range".
type RecordIDKind uint8

const (
	RecordIDString RecordIDKind = iota
	RecordIDInt
	RecordIDUUID
	RecordIDObject
	RecordIDArray
	RecordIDRange
)

// RecordID is the typed key (GLOSSARY "Record id") addressing one
// record within a table. Table is carried alongside so a RecordID
// value also serves as a "Thing" (GLOSSARY: (table, record id) pair).
type RecordID struct {
	Table string
	Kind  RecordIDKind
	Str   string
	Int   int64
	UUID  uuid.UUID
	Obj   map[string]Value
	Arr   []Value
	Rng   *Range
}

func NewStringID(table, id string) RecordID {
	return RecordID{Table: table, Kind: RecordIDString, Str: id}
}

func NewIntID(table string, id int64) RecordID {
	return RecordID{Table: table, Kind: RecordIDInt, Int: id}
}

func NewUUIDID(table string, id uuid.UUID) RecordID {
	return RecordID{Table: table, Kind: RecordIDUUID, UUID: id}
}

func (r RecordID) String() string {
	switch r.Kind {
	case RecordIDString:
		return fmt.Sprintf("%s:%s", r.Table, r.Str)
	case RecordIDInt:
		return fmt.Sprintf("%s:%d", r.Table, r.Int)
	case RecordIDUUID:
		return fmt.Sprintf("%s:%s", r.Table, r.UUID)
	case RecordIDObject:
		return fmt.Sprintf("%s:{%d fields}", r.Table, len(r.Obj))
	case RecordIDArray:
		return fmt.Sprintf("%s:[%d]", r.Table, len(r.Arr))
	case RecordIDRange:
		return fmt.Sprintf("%s:%s", r.Table, r.Rng)
	default:
		return r.Table + ":?"
	}
}

// Equal compares two record ids for identity (same table, same id).
func (r RecordID) Equal(o RecordID) bool {
	if r.Table != o.Table || r.Kind != o.Kind {
		return false
	}
	switch r.Kind {
	case RecordIDString:
		return r.Str == o.Str
	case RecordIDInt:
		return r.Int == o.Int
	case RecordIDUUID:
		return r.UUID == o.UUID
	default:
		return Compare(FromRecordID(r), FromRecordID(o)) == 0
	}
}
