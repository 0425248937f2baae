package pcp

// Pair bundles the two sides of one PCP domino: A is the top string, B is
// the bottom string.
type Pair struct {
	A Part
	B Part
}

// ConfiguredPair is a Pair together with the bookkeeping a search needs but
// the residual algebra doesn't: the label accumulated into a Node's Sum
// when this pair is used (by convention, a pair's 1-based position in the
// problem file), and the depth increment it contributes (always 1 for
// ordinary problems; kept as a field, per spec, so a future weighted
// variant can set it otherwise).
type ConfiguredPair struct {
	Pair     Pair
	SumInc   uint64
	DepthInc uint64
}
