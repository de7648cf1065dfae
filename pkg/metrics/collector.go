package metrics

import "time"

// NodeCounts reports how many cluster nodes are in each liveness
// status, keyed the way ClusterNodesTotal's "status" label is.
type NodeCounts map[string]int

// Source is whatever can report the gauges Collector polls on a
// timer; internal/cluster.Roster satisfies it, reading index sizes
// through internal/search.TermCount and internal/vector.ElementCount.
type Source interface {
	NodeCounts() (NodeCounts, error)
	SearchIndexedTerms() (map[string]int, error)
	HNSWElements() (map[string]int, error)
	LiveQueriesByTable() (map[string]int, error)
}

// Collector polls a Source on an interval and updates the
// corresponding gauge metrics.
type Collector struct {
	source Source
	stopCh chan struct{}
}

func NewCollector(source Source) *Collector {
	return &Collector{source: source, stopCh: make(chan struct{})}
}

func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if counts, err := c.source.NodeCounts(); err == nil {
		for status, n := range counts {
			ClusterNodesTotal.WithLabelValues(status).Set(float64(n))
		}
	}
	if terms, err := c.source.SearchIndexedTerms(); err == nil {
		for index, n := range terms {
			SearchIndexedTermsTotal.WithLabelValues(index).Set(float64(n))
		}
	}
	if elems, err := c.source.HNSWElements(); err == nil {
		for index, n := range elems {
			HNSWElementsTotal.WithLabelValues(index).Set(float64(n))
		}
	}
	if lq, err := c.source.LiveQueriesByTable(); err == nil {
		for table, n := range lq {
			LiveQueriesTotal.WithLabelValues(table).Set(float64(n))
		}
	}
}
