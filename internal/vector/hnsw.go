package vector

import (
	"math"
	"math/rand"

	"github.com/warrendb/warrendb/internal/catalog"
	"github.com/warrendb/warrendb/internal/doc"
	"github.com/warrendb/warrendb/internal/keys"
)

type candidate struct {
	id   uint64
	dist float64
}

// Insert runs spec §4.7's insertion algorithm: allocate an element id,
// persist the vector, sample an insertion level, greedily descend the
// layers above it from the current entry point, then run a bounded
// beam search on every layer at or below it to find M (2M on layer 0)
// neighbours and wire two-way adjacency. Returns the new element id.
func (w *Writer) Insert(txn doc.TxnWriter, ix catalog.Index, recordIDBytes []byte, v []float64) (uint64, error) {
	lock := w.lockFor(ix)
	lock.Lock()
	defer lock.Unlock()

	m := ix.M
	if m == 0 {
		m = catalog.DefaultM
	}
	efConstruction := ix.EfConstruction
	if efConstruction == 0 {
		efConstruction = catalog.DefaultEfConstruction
	}

	elementID, err := w.alloc.NextID(txn, ix.NS, ix.DB, elementIDScope(ix.TB, ix.Name))
	if err != nil {
		return 0, err
	}
	vecKey, err := keys.HNSWElement{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, ElementID: elementID}.Encode()
	if err != nil {
		return 0, err
	}
	if err := txn.Set(vecKey, encodeVector(v)); err != nil {
		return 0, err
	}
	if err := w.linkDoc(txn, ix, elementID, recordIDBytes); err != nil {
		return 0, err
	}

	st, err := loadGraphState(txn, ix)
	if err != nil {
		return 0, err
	}

	level := sampleLevel(m)

	if !st.HasEntry {
		for l := 0; l <= level; l++ {
			if err := w.setNeighbors(txn, ix, l, elementID, nil); err != nil {
				return 0, err
			}
		}
		return elementID, saveGraphState(txn, ix, graphState{EntryPoint: elementID, MaxLevel: level, HasEntry: true})
	}

	entry := st.EntryPoint
	for l := st.MaxLevel; l > level; l-- {
		entry, err = w.greedyClosest(txn, ix, l, v, entry)
		if err != nil {
			return 0, err
		}
	}

	for l := min(level, st.MaxLevel); l >= 0; l-- {
		width := m
		if l == 0 {
			width = 2 * m
		}
		candidates, err := w.searchLayer(txn, ix, l, v, entry, efConstruction)
		if err != nil {
			return 0, err
		}
		neighbors := selectNeighbors(candidates, width)
		if err := w.setNeighbors(txn, ix, l, elementID, neighbors); err != nil {
			return 0, err
		}
		for _, n := range neighbors {
			existing, err := w.getNeighbors(txn, ix, l, n)
			if err != nil {
				return 0, err
			}
			existing = appendUnique(existing, elementID)
			if len(existing) > width {
				existing = trimFarthest(txn, ix, l, n, existing, width)
			}
			if err := w.setNeighbors(txn, ix, l, n, existing); err != nil {
				return 0, err
			}
		}
		if len(candidates) > 0 {
			entry = candidates[0].id
		}
	}

	if level > st.MaxLevel {
		return elementID, saveGraphState(txn, ix, graphState{EntryPoint: elementID, MaxLevel: level, HasEntry: true})
	}
	return elementID, nil
}

// Neighbor is one k-NN result (spec §4.7 "return the k closest with
// their distances").
type Neighbor struct {
	RecordIDBytes []byte
	Distance      float64
}

// Search runs spec §4.7's k-NN query: descend upper layers greedily,
// then beam-search layer 0 with width max(ef_config, k), deduplicate
// by record id, and return the k closest.
func (w *Writer) Search(txn doc.TxnWriter, ix catalog.Index, query []float64, k int) ([]Neighbor, error) {
	lock := w.lockFor(ix)
	lock.RLock()
	defer lock.RUnlock()

	st, err := loadGraphState(txn, ix)
	if err != nil || !st.HasEntry {
		return nil, err
	}
	efConstruction := ix.EfConstruction
	if efConstruction == 0 {
		efConstruction = catalog.DefaultEfConstruction
	}
	efSearch := efConstruction
	if k > efSearch {
		efSearch = k
	}

	entry := st.EntryPoint
	for l := st.MaxLevel; l > 0; l-- {
		entry, err = w.greedyClosest(txn, ix, l, query, entry)
		if err != nil {
			return nil, err
		}
	}

	candidates, err := w.searchLayer(txn, ix, 0, query, entry, efSearch)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	out := make([]Neighbor, 0, k)
	for _, c := range candidates {
		if len(out) >= k {
			break
		}
		recBytes, present, err := w.lookupRecord(txn, ix, c.id)
		if err != nil {
			return nil, err
		}
		if !present || seen[string(recBytes)] {
			continue
		}
		seen[string(recBytes)] = true
		out = append(out, Neighbor{RecordIDBytes: recBytes, Distance: c.dist})
	}
	return out, nil
}

// greedyClosest implements the single-path descent used above the
// insertion/query's working layer (spec §4.7 step 3): repeatedly move
// to whichever neighbour of the current closest element is closer to
// v than it is, stopping once no neighbour improves on it.
func (w *Writer) greedyClosest(txn doc.TxnWriter, ix catalog.Index, layer int, v []float64, entry uint64) (uint64, error) {
	best := entry
	bestVec, err := w.getVector(txn, ix, best)
	if err != nil {
		return 0, err
	}
	bestDist := Distance(ix.Distance, v, bestVec)
	for {
		improved := false
		neighbors, err := w.getNeighbors(txn, ix, layer, best)
		if err != nil {
			return 0, err
		}
		for _, n := range neighbors {
			nv, err := w.getVector(txn, ix, n)
			if err != nil {
				return 0, err
			}
			d := Distance(ix.Distance, v, nv)
			if d < bestDist {
				best, bestDist, improved = n, d, true
			}
		}
		if !improved {
			return best, nil
		}
	}
}

// searchLayer runs the bounded-beam search spec §4.7 step 4 names:
// maintain a candidate frontier and a result set of size width,
// expanding the closest unvisited candidate until none remain that
// could still improve the result set.
func (w *Writer) searchLayer(txn doc.TxnWriter, ix catalog.Index, layer int, v []float64, entry uint64, width int) ([]candidate, error) {
	entryVec, err := w.getVector(txn, ix, entry)
	if err != nil {
		return nil, err
	}
	visited := map[uint64]bool{entry: true}
	frontier := []candidate{{id: entry, dist: Distance(ix.Distance, v, entryVec)}}
	result := []candidate{frontier[0]}

	for len(frontier) > 0 {
		sortCandidates(frontier)
		cur := frontier[0]
		frontier = frontier[1:]

		sortCandidates(result)
		if len(result) >= width && cur.dist > result[len(result)-1].dist {
			break
		}

		neighbors, err := w.getNeighbors(txn, ix, layer, cur.id)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			visited[n] = true
			nv, err := w.getVector(txn, ix, n)
			if err != nil {
				return nil, err
			}
			d := Distance(ix.Distance, v, nv)
			frontier = append(frontier, candidate{id: n, dist: d})
			result = append(result, candidate{id: n, dist: d})
		}
	}
	sortCandidates(result)
	if len(result) > width {
		result = result[:width]
	}
	return result, nil
}

// sampleLevel draws an insertion level proportional to exp(-unif /
// ln(M)) (spec §4.7 step 2), the standard HNSW level-assignment
// distribution that keeps upper layers exponentially sparser.
func sampleLevel(m int) int {
	mL := 1.0 / math.Log(float64(m))
	return int(math.Floor(-math.Log(rand.Float64()) * mL))
}

func selectNeighbors(candidates []candidate, width int) []uint64 {
	sortCandidates(candidates)
	if len(candidates) > width {
		candidates = candidates[:width]
	}
	out := make([]uint64, len(candidates))
	for i, c := range candidates {
		out[i] = c.id
	}
	return out
}

func sortCandidates(c []candidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].dist < c[j-1].dist; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

func appendUnique(ids []uint64, id uint64) []uint64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// trimFarthest drops the farthest-from-n members of ids (a reverse
// link whose degree just exceeded width) so no element's adjacency
// list grows unbounded as the graph fills in.
func trimFarthest(txn doc.TxnWriter, ix catalog.Index, layer int, n uint64, ids []uint64, width int) []uint64 {
	nv, err := txnGetVectorOrNil(txn, ix, n)
	if err != nil || nv == nil {
		return ids[:width]
	}
	cs := make([]candidate, 0, len(ids))
	for _, id := range ids {
		v, err := txnGetVectorOrNil(txn, ix, id)
		if err != nil || v == nil {
			continue
		}
		cs = append(cs, candidate{id: id, dist: Distance(ix.Distance, nv, v)})
	}
	sortCandidates(cs)
	if len(cs) > width {
		cs = cs[:width]
	}
	out := make([]uint64, len(cs))
	for i, c := range cs {
		out[i] = c.id
	}
	return out
}

func txnGetVectorOrNil(txn doc.TxnWriter, ix catalog.Index, id uint64) ([]float64, error) {
	key, err := keys.HNSWElement{NS: ix.NS, DB: ix.DB, TB: ix.TB, IX: ix.Name, ElementID: id}.Encode()
	if err != nil {
		return nil, err
	}
	raw, present, err := txn.Get(key)
	if err != nil || !present {
		return nil, err
	}
	return decodeVector(raw), nil
}
