package keys

// Record encodes /*{ns}*{db}*{tb}*{id}. IDBytes is the record id's own
// collating encoding (produced by internal/val.RecordID.Collate), kept
// opaque here so the keyspace doesn't need to know about the value
// model's id-kind union (spec §3: record ids are string | int | uuid |
// object | array | range).
type Record struct {
	NS, DB, TB string
	IDBytes    []byte
}

func (k Record) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	b.Bytes([]byte{'*'}).Str(k.TB)
	return b.Bytes([]byte{'*'}).Bytes(k.IDBytes).Done()
}

// DecodeRecord splits a record key back into its scope and the raw,
// still-collated id bytes; the caller (internal/val) decodes IDBytes
// into a typed RecordID.
func DecodeRecord(b []byte) (ns, db, tb string, idBytes []byte, err error) {
	r := NewReader(b)
	r.Byte() // '/'
	r.Byte() // '*'
	ns = r.Str()
	r.Byte() // '*'
	db = r.Str()
	r.Byte() // '*'
	tb = r.Str()
	r.Byte() // '*'
	idBytes = r.Bytes()
	return ns, db, tb, idBytes, r.Done()
}

// GraphEdge encodes /*{ns}*{db}*{tb}~{id}{dir}{other}. dir is 'O' (out,
// this->other) or 'I' (in, other->this) so both endpoints of a RELATE
// can enumerate neighbours by scanning their own directional prefix
// (spec §3, §4.5 step 10 edges()).
type GraphEdge struct {
	NS, DB, TB string
	IDBytes    []byte
	Dir        byte // 'O' or 'I'
	OtherTB    string
	OtherBytes []byte
}

func (k GraphEdge) Encode() ([]byte, error) {
	b := NewBuilder()
	scopeHeader(b, k.NS, k.DB)
	b.Bytes([]byte{'*'}).Str(k.TB)
	b.Bytes([]byte{'~'}).Bytes(k.IDBytes).Byte(k.Dir)
	return b.Str(k.OtherTB).Bytes(k.OtherBytes).Done()
}

// Byte is a convenience single-byte append for discriminators that
// aren't the Bool 0/1 pair (e.g. the edge direction tag).
func (b *Builder) Byte(v byte) *Builder {
	b.buf = append(b.buf, v)
	return b
}

// GraphEdgeScopeRange brackets all edges for (ns, db, tb, id, dir),
// i.e. one endpoint's neighbour list in one direction.
func GraphEdgeScopeRange(ns, db, tb string, idBytes []byte, dir byte) (lo, hi []byte, err error) {
	b := NewBuilder()
	scopeHeader(b, ns, db)
	b.Bytes([]byte{'*'}).Str(tb)
	b.Bytes([]byte{'~'}).Bytes(idBytes).Byte(dir)
	prefix, err := b.Done()
	if err != nil {
		return nil, nil, err
	}
	lo, hi = PrefixRange(prefix)
	return lo, hi, nil
}
