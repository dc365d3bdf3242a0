package index

// PairSet tracks unordered ID pairs so each pair is processed once no matter
// which side it is first seen from.
type PairSet struct {
	seen map[[2]int64]struct{}
}

// NewPairSet returns an empty set.
func NewPairSet() *PairSet {
	return &PairSet{seen: make(map[[2]int64]struct{})}
}

func ordered(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}

// Seen reports whether the unordered pair has been added.
func (p *PairSet) Seen(a, b int64) bool {
	_, ok := p.seen[ordered(a, b)]
	return ok
}

// Add marks the unordered pair and reports whether it was newly added.
func (p *PairSet) Add(a, b int64) bool {
	k := ordered(a, b)
	if _, ok := p.seen[k]; ok {
		return false
	}
	p.seen[k] = struct{}{}
	return true
}

// Len returns the number of distinct pairs.
func (p *PairSet) Len() int { return len(p.seen) }
