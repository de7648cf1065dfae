package vector

import (
	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
)

// ElementCount returns the number of live vectors held by an HNSW
// index — the HNSWElements figure pkg/metrics.Source reports per node.
func ElementCount(txn doc.TxnWriter, ix catalog.Index) (int, error) {
	lo, hi, err := keys.HNSWElementScopeRange(ix.NS, ix.DB, ix.TB, ix.Name)
	if err != nil {
		return 0, err
	}
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
