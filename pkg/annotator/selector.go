package annotator

// SelectBatch returns, in document order, the first limit candidates that are neither cached,
// annotated nor pending. An empty result means there is nothing to submit this cycle.
func SelectBatch(candidates []Candidate, cache *Cache, limit int) []Candidate {
	batch := make([]Candidate, 0, limit)
	for _, c := range candidates {
		if len(batch) == limit {
			break
		}
		if cache.Has(c.Text) || c.Item.Annotated() || c.Item.Pending() {
			continue
		}
		batch = append(batch, c)
	}
	return batch
}
