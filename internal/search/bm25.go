package search

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
)

// DefaultK1 and DefaultB are BM25's tuning constants (spec §4.6
// "Scoring uses BM25 with configurable (k1, b) (defaults 1.2, 0.75)").
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// State mirrors `!bs{ix}`'s aggregate doc count / total term count,
// from which average document length (the BM25 length-normalization
// term) is derived.
type State struct {
	DocCount   int64
	TotalTerms int64
}

func (s State) avgDocLen() float64 {
	if s.DocCount == 0 {
		return 0
	}
	return float64(s.TotalTerms) / float64(s.DocCount)
}

func loadState(txn doc.TxnWriter, ix catalog.Index) (State, error) {
	key, err := keys.FTState{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name}.Encode()
	if err != nil {
		return State{}, err
	}
	raw, present, err := txn.Get(key)
	if err != nil || !present {
		return State{}, err
	}
	return State{DocCount: int64(decodeU64(raw[0:8])), TotalTerms: int64(decodeU64(raw[8:16]))}, nil
}

func saveState(txn doc.TxnWriter, ix catalog.Index, st State) error {
	key, err := keys.FTState{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name}.Encode()
	if err != nil {
		return err
	}
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], uint64(st.DocCount))
	binary.BigEndian.PutUint64(buf[8:16], uint64(st.TotalTerms))
	return txn.Set(key, buf)
}

// Score is BM25's per-term contribution for one document: term
// frequency tf within the doc, the doc's own length docLen, the
// collection's average length avgLen, the number of docs containing
// the term docFreq, and the collection's total doc count docCount.
func Score(tf int, docLen, avgLen float64, docFreq, docCount int, k1, b float64) float64 {
	if docFreq == 0 || docCount == 0 {
		return 0
	}
	// smoothed idf (always positive, unlike the plain Robertson/Sparck-Jones
	// form which hits 0 once a term appears in half the collection).
	idf := math.Log(1 + (float64(docCount)-float64(docFreq)+0.5)/(float64(docFreq)+0.5))
	num := float64(tf) * (k1 + 1)
	den := float64(tf) + k1*(1-b+b*docLen/avgLen)
	return idf * (num / den)
}

// ScoredDoc is one match Search returns: the record id plus its
// aggregate BM25 score across the query's terms.
type ScoredDoc struct {
	RecordIDBytes []byte
	Score         float64
}

// Search implements spec §4.6's `@` match operator: tokenizes query
// with the index's analyzer, scores every doc_id appearing under any
// query term with BM25, and returns the top limit matches ordered by
// descending score. Nothing in internal/exec calls it, and
// internal/exec has no search::score/highlight/offsets builtins.
func Search(txn doc.TxnWriter, ix catalog.Index, query string, k1, b float64, limit int) ([]ScoredDoc, error) {
	a, err := catalog.GetAnalyzer(txn, ix.NS, ix.DB, ix.Analyzer)
	if err != nil {
		a = catalog.Analyzer{Tokenizers: []string{"blank"}, Filters: []string{"lowercase"}}
	}
	terms := dedupe(Analyze(a, query))
	if len(terms) == 0 {
		return nil, nil
	}

	st, err := loadState(txn, ix)
	if err != nil {
		return nil, err
	}
	avgLen := st.avgDocLen()
	if avgLen == 0 {
		return nil, nil
	}

	scores := map[uint64]float64{}
	for _, term := range terms {
		lookupKey, err := keys.FTTermID{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, Term: term}.Encode()
		if err != nil {
			return nil, err
		}
		raw, present, err := txn.Get(lookupKey)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		termID := decodeU64(raw)

		bm := roaring.New()
		bmKey, err := keys.FTBitmap{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, TermID: termID}.Encode()
		if err != nil {
			return nil, err
		}
		bmRaw, present, err := txn.Get(bmKey)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		if err := bm.UnmarshalBinary(bmRaw); err != nil {
			return nil, err
		}
		docFreq := int(bm.GetCardinality())

		it := bm.Iterator()
		for it.HasNext() {
			docID := uint64(it.Next())
			tf, docLen, err := docStats(txn, ix, termID, docID)
			if err != nil {
				return nil, err
			}
			scores[docID] += Score(tf, docLen, avgLen, docFreq, int(st.DocCount), k1, b)
		}
	}

	out := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		rk, err := keys.FTDocRecord{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, DocID: docID}.Encode()
		if err != nil {
			return nil, err
		}
		recIDBytes, present, err := txn.Get(rk)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		out = append(out, ScoredDoc{RecordIDBytes: recIDBytes, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// docStats returns one doc_id's term frequency for termID and its
// total term count (document length), the two per-doc quantities
// Score needs beyond the collection-wide state.
func docStats(txn doc.TxnWriter, ix catalog.Index, termID, docID uint64) (tf int, docLen float64, err error) {
	pk, err := keys.FTPosting{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, TermID: termID, DocID: docID}.Encode()
	if err != nil {
		return 0, 0, err
	}
	raw, present, err := txn.Get(pk)
	if err != nil {
		return 0, 0, err
	}
	if present {
		tf = int(decodeU64(raw))
	}
	dk, err := keys.FTDocTerms{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, DocID: docID}.Encode()
	if err != nil {
		return 0, 0, err
	}
	termIDs, present, err := txn.Get(dk)
	if err != nil {
		return 0, 0, err
	}
	if present {
		for _, tid := range decodeTermIDs(termIDs) {
			fk, err := keys.FTPosting{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, TermID: tid, DocID: docID}.Encode()
			if err != nil {
				return 0, 0, err
			}
			freq, ok, err := txn.Get(fk)
			if err != nil {
				return 0, 0, err
			}
			if ok {
				docLen += float64(decodeU64(freq))
			}
		}
	}
	if docLen == 0 {
		docLen = 1
	}
	return tf, docLen, nil
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
