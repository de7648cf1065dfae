package doc

import (
	"github.com/warrendb/warrendb/internal/keys"
	"github.com/warrendb/warrendb/internal/val"
)

// relateEndpoints pulls the `in`/`out` record-id fields a RELATE
// record carries. Absence of either means this isn't actually an edge
// record (the caller shouldn't have set ActionRelate, but edges() is
// cheap to no-op rather than fail on a malformed call).
func relateEndpoints(record val.Value) (in, out val.RecordID, ok bool) {
	obj, isObj := record.AsObject()
	if !isObj {
		return val.RecordID{}, val.RecordID{}, false
	}
	inV, hasIn := obj["in"]
	outV, hasOut := obj["out"]
	if !hasIn || !hasOut {
		return val.RecordID{}, val.RecordID{}, false
	}
	in, inOK := inV.AsRecordID()
	out, outOK := outV.AsRecordID()
	if !inOK || !outOK {
		return val.RecordID{}, val.RecordID{}, false
	}
	return in, out, true
}

// writeEdges runs stage 10: a RELATE record carries `in` and `out`
// record-id fields; write both directional edge keys so either
// endpoint can enumerate its neighbours by scanning its own prefix
// (spec §3, §4.5 step 10).
func writeEdges(txn TxnWriter, ns, db, tb string, id val.RecordID, record val.Value) error {
	in, out, ok := relateEndpoints(record)
	if !ok {
		return nil
	}
	idBytes := id.Collate()
	outKey, err := keys.GraphEdge{NS: ns, DB: db, TB: tb, IDBytes: idBytes, Dir: 'O', OtherTB: out.Table, OtherBytes: out.Collate()}.Encode()
	if err != nil {
		return err
	}
	if err := txn.Set(outKey, []byte{}); err != nil {
		return err
	}
	inKey, err := keys.GraphEdge{NS: ns, DB: db, TB: tb, IDBytes: idBytes, Dir: 'I', OtherTB: in.Table, OtherBytes: in.Collate()}.Encode()
	if err != nil {
		return err
	}
	return txn.Set(inKey, []byte{})
}

func removeEdges(txn TxnWriter, ns, db, tb string, id val.RecordID, record val.Value) error {
	in, out, ok := relateEndpoints(record)
	if !ok {
		return nil
	}
	idBytes := id.Collate()
	outKey, err := keys.GraphEdge{NS: ns, DB: db, TB: tb, IDBytes: idBytes, Dir: 'O', OtherTB: out.Table, OtherBytes: out.Collate()}.Encode()
	if err != nil {
		return err
	}
	if err := txn.Del(outKey); err != nil {
		return err
	}
	inKey, err := keys.GraphEdge{NS: ns, DB: db, TB: tb, IDBytes: idBytes, Dir: 'I', OtherTB: in.Table, OtherBytes: in.Collate()}.Encode()
	if err != nil {
		return err
	}
	return txn.Del(inKey)
}
