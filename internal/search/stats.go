package search

import (
	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
)

// TermCount returns the number of distinct terms an index has assigned
// an id to — its vocabulary size, the SearchIndexedTerms figure
// pkg/metrics.Source reports per node.
func TermCount(txn doc.TxnWriter, ix catalog.Index) (int, error) {
	lo, hi, err := keys.FTTermIDScopeRange(ix.NS, ix.DB, ix.TB, ix.Name)
	if err != nil {
		return 0, err
	}
	rows, err := txn.Scan(lo, hi, false, 0)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
