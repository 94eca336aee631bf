package engine

// Observation is one extracted data point: the owning query plus a nullable
// numeric value. A nil value records that the target existed in a document
// but carried no usable numeric payload; a missing observation means the
// target was absent entirely.
type Observation struct {
	QueryID int
	Value   *float64
}

// valueStore accumulates observations keyed by formatted date. It is
// append-only and written by a single goroutine during one aggregation pass;
// same-day same-query observations are summed at assembly time, never
// overwritten.
type valueStore struct {
	byDate map[string][]Observation
}

func newValueStore() *valueStore {
	return &valueStore{byDate: make(map[string][]Observation)}
}

func (s *valueStore) add(dateKey string, queryID int, value *float64) {
	s.byDate[dateKey] = append(s.byDate[dateKey], Observation{QueryID: queryID, Value: value})
}

// sum totals the non-nil observations for one query on one date. ok is false
// when no observation carries a value: either none exist for the query, or
// every one of them is nil.
func (s *valueStore) sum(dateKey string, queryID int) (total float64, ok bool) {
	for _, obs := range s.byDate[dateKey] {
		if obs.QueryID != queryID || obs.Value == nil {
			continue
		}
		total += *obs.Value
		ok = true
	}
	return total, ok
}
