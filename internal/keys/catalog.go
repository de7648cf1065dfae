package keys

// Namespace/database/table scoped families: /*{ns}*{db}!tb{name}, the
// per-table field/event/index/live-query definitions, and the
// per-scope monotonic id generator state (spec §3's addressing
// hierarchy: Root -> Namespace -> Database -> Table -> Record).

func scopeHeader(b *Builder, ns, db string) *Builder {
	return b.Bytes([]byte{'*'}).Str(ns).Bytes([]byte{'*'}).Str(db)
}

// DatabaseRoot encodes /*{ns}*{db}, the database's own root marker.
type DatabaseRoot struct{ NS, DB string }

func (k DatabaseRoot) Encode() ([]byte, error) {
	return scopeHeader(NewBuilder(), k.NS, k.DB).Done()
}

// DatabaseScopeRange brackets every key belonging to (ns, db): all
// tables, records, indexes, and change-feed entries within it. Used by
// catalog.RemoveDatabase to range-delete the whole scope (spec §4.3).
func DatabaseScopeRange(ns, db string) (lo, hi []byte, err error) {
	b := NewBuilder().Bytes([]byte{'*'}).Str(ns).Bytes([]byte{'*'}).Str(db)
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// NamespaceScopeAllRange brackets every key belonging to a namespace
// across all its databases, used by catalog.RemoveNamespace.
func NamespaceScopeAllRange(ns string) (lo, hi []byte, err error) {
	b := NewBuilder().Bytes([]byte{'*'}).Str(ns)
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// Table encodes /*{ns}*{db}!tb{name}.
type Table struct{ NS, DB, Name string }

func (k Table) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	return b.Bytes([]byte{'!', 't', 'b'}).Str(k.Name).Done()
}

// TableScopeRange brackets a single table's records, used by
// catalog.RemoveTable and by the executor's full-table scans.
func TableScopeRange(ns, db, tb string) (lo, hi []byte, err error) {
	b := NewBuilder().Bytes([]byte{'*'}).Str(ns).Bytes([]byte{'*'}).Str(db).Bytes([]byte{'*'}).Str(tb)
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// AllTablesRange brackets every table definition in (ns, db).
func AllTablesRange(ns, db string) (lo, hi []byte, err error) {
	b := NewBuilder()
	scopeHeader(b, ns, db)
	b.Bytes([]byte{'!', 't', 'b'})
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// Field encodes /*{ns}*{db}!tb{tb}!fd{name}. name is the dotted field
// path, e.g. "address.city" (spec §3 Field schema).
type Field struct{ NS, DB, TB, Name string }

func (k Field) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	b.Bytes([]byte{'!', 't', 'b'}).Str(k.TB)
	return b.Bytes([]byte{'!', 'f', 'd'}).Str(k.Name).Done()
}

func AllFieldsRange(ns, db, tb string) (lo, hi []byte, err error) {
	b := NewBuilder()
	scopeHeader(b, ns, db)
	b.Bytes([]byte{'!', 't', 'b'}).Str(tb).Bytes([]byte{'!', 'f', 'd'})
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// Event encodes /*{ns}*{db}!tb{tb}!ev{name}.
type Event struct{ NS, DB, TB, Name string }

func (k Event) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	b.Bytes([]byte{'!', 't', 'b'}).Str(k.TB)
	return b.Bytes([]byte{'!', 'e', 'v'}).Str(k.Name).Done()
}

func AllEventsRange(ns, db, tb string) (lo, hi []byte, err error) {
	b := NewBuilder()
	scopeHeader(b, ns, db)
	b.Bytes([]byte{'!', 't', 'b'}).Str(tb).Bytes([]byte{'!', 'e', 'v'})
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// IndexDef encodes /*{ns}*{db}!tb{tb}!ix{name}, the index's own
// definition row (distinct from the index's postings, which live
// under the table's '+' index-data family — see index.go).
type IndexDef struct{ NS, DB, TB, Name string }

func (k IndexDef) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	b.Bytes([]byte{'!', 't', 'b'}).Str(k.TB)
	return b.Bytes([]byte{'!', 'i', 'x'}).Str(k.Name).Done()
}

func AllIndexDefsRange(ns, db, tb string) (lo, hi []byte, err error) {
	b := NewBuilder()
	scopeHeader(b, ns, db)
	b.Bytes([]byte{'!', 't', 'b'}).Str(tb).Bytes([]byte{'!', 'i', 'x'})
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// LiveQueryDef encodes /*{ns}*{db}!tb{tb}!lq{uuid}, the persisted live
// query pattern keyed by its uuid (spec §4.8/GLOSSARY).
type LiveQueryDef struct {
	NS, DB, TB string
	UUID       [16]byte
}

func (k LiveQueryDef) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	b.Bytes([]byte{'!', 't', 'b'}).Str(k.TB)
	return b.Bytes([]byte{'!', 'l', 'q'}).Bytes(k.UUID[:]).Done()
}

func AllLiveQueriesRange(ns, db, tb string) (lo, hi []byte, err error) {
	b := NewBuilder()
	scopeHeader(b, ns, db)
	b.Bytes([]byte{'!', 't', 'b'}).Str(tb).Bytes([]byte{'!', 'l', 'q'})
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}

// Analyzer encodes /*{ns}*{db}!an{name}: a named tokenizer+filter
// chain shared by full-text indexes in the database (spec §3 Indexes).
type Analyzer struct{ NS, DB, Name string }

func (k Analyzer) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	return b.Bytes([]byte{'!', 'a', 'n'}).Str(k.Name).Done()
}

// DbUser / DbAccess mirror RootUser/RootAccess at database scope
// (spec §13 supplement: catalog entries named in spec §3's `/!us`,
// `/!ac` families also exist per-namespace/per-database in the
// original system).
type DbUser struct{ NS, DB, Name string }

func (k DbUser) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	return b.Bytes([]byte{'!', 'u', 's'}).Str(k.Name).Done()
}

type DbAccess struct{ NS, DB, Name string }

func (k DbAccess) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	return b.Bytes([]byte{'!', 'a', 'c'}).Str(k.Name).Done()
}

// NsUser / NsAccess mirror RootUser/RootAccess at namespace scope,
// the level between root and database.
type NsUser struct{ NS, Name string }

func (k NsUser) Encode() ([]byte, error) {
	b := NewBuilder().Bytes([]byte{'*'}).Str(k.NS)
	return b.Bytes([]byte{'!', 'u', 's'}).Str(k.Name).Done()
}

type NsAccess struct{ NS, Name string }

func (k NsAccess) Encode() ([]byte, error) {
	b := NewBuilder().Bytes([]byte{'*'}).Str(k.NS)
	return b.Bytes([]byte{'!', 'a', 'c'}).Str(k.Name).Done()
}

// IDGenerator encodes /*{ns}*{db}!ig{scope}, the batched monotonic
// counter state for namespace/database ids and full-text doc ids
// (spec §3 "batched allocation", §4.6 doc_id assignment).
type IDGenerator struct{ NS, DB, Scope string }

func (k IDGenerator) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	return b.Bytes([]byte{'!', 'i', 'g'}).Str(k.Scope).Done()
}
