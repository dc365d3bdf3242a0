package analysis

// Deduplicate removes self_overlap findings whose participant pair also
// surfaced as an inter_layer_overlap. Merging several source layers for the
// combined self-overlap scan makes the same physical overlap show up under
// both passes; the inter-layer finding carries source attribution, so it is
// the one kept.
func Deduplicate(results []Result) []Result {
	interPairs := make(map[[2]string]struct{})
	for _, r := range results {
		if r.Kind == KindInterLayerOverlap {
			interPairs[r.PairKey()] = struct{}{}
		}
	}
	if len(interPairs) == 0 {
		return results
	}

	out := results[:0]
	for _, r := range results {
		if r.Kind == KindSelfOverlap {
			if _, dup := interPairs[r.PairKey()]; dup {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
