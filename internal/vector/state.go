package vector

import (
	"encoding/binary"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
)

// graphState is `!hs`'s entry-point element id + max level (spec §4.7
// "state: entry-point element id + level").
type graphState struct {
	EntryPoint uint64
	MaxLevel   int
	HasEntry   bool
}

func loadGraphState(txn doc.TxnWriter, ix catalog.Index) (graphState, error) {
	key, err := keys.HNSWState{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name}.Encode()
	if err != nil {
		return graphState{}, err
	}
	raw, present, err := txn.Get(key)
	if err != nil || !present {
		return graphState{}, err
	}
	return graphState{
		EntryPoint: binary.BigEndian.Uint64(raw[0:8]),
		MaxLevel:   int(int32(binary.BigEndian.Uint32(raw[8:12]))),
		HasEntry:   true,
	}, nil
}

func saveGraphState(txn doc.TxnWriter, ix catalog.Index, st graphState) error {
	key, err := keys.HNSWState{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name}.Encode()
	if err != nil {
		return err
	}
	buf := make([]byte, 12)
	binary.BigEndian.PutUint64(buf[0:8], st.EntryPoint)
	binary.BigEndian.PutUint32(buf[8:12], uint32(int32(st.MaxLevel)))
	return txn.Set(key, buf)
}
