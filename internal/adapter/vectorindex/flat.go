package vectorindex

import "sort"

// flat is an exact search structure over dense internal IDs. The vector at
// position i has internal ID i; it knows nothing about external IDs.
type flat struct {
	dim     int
	metric  Metric
	vectors [][]float32
}

type hit struct {
	id       int
	distance float64
}

func (f *flat) add(vectors [][]float32) (first int) {
	first = len(f.vectors)
	for _, v := range vectors {
		cp := make([]float32, len(v))
		copy(cp, v)
		f.vectors = append(f.vectors, cp)
	}
	return first
}

func (f *flat) len() int {
	return len(f.vectors)
}

// search returns up to k hits by ascending distance. Equal distances keep
// insertion order.
func (f *flat) search(query []float32, k int) []hit {
	hits := make([]hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = hit{id: i, distance: f.metric(query, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].distance < hits[j].distance
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}
