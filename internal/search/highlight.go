package search

import (
	"strings"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
)

// Offsets backs spec §4.6's `search::offsets` builtin: the token
// positions a term occupied within one doc_id, read back from
// `!bo{doc_id}{term_id}`.
func Offsets(txn doc.TxnWriter, ix catalog.Index, docID, termID uint64) ([]int, error) {
	key, err := keys.FTOffsets{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, DocID: docID, TermID: termID}.Encode()
	if err != nil {
		return nil, err
	}
	raw, present, err := txn.Get(key)
	if err != nil || !present {
		return nil, err
	}
	return decodePositions(raw), nil
}

// Highlight backs spec §4.6's `search::highlight` builtin: re-tokenizes
// text with the index's analyzer and wraps every occurrence of any
// query term in pre/post markers, the simplest faithful rendering of
// "highlight the matched terms" that needs no stored offsets at all
// for a single-document, single-query call (Offsets exists for
// callers building snippets across many documents without
// re-tokenizing each one).
func Highlight(a catalog.Analyzer, text string, queryTerms []string, pre, post string) string {
	match := map[string]bool{}
	for _, t := range queryTerms {
		match[t] = true
	}
	words := strings.Fields(text)
	out := make([]string, len(words))
	for i, w := range words {
		toks := Analyze(a, w)
		hit := false
		for _, t := range toks {
			if match[t] {
				hit = true
				break
			}
		}
		if hit {
			out[i] = pre + w + post
		} else {
			out[i] = w
		}
	}
	return strings.Join(out, " ")
}
