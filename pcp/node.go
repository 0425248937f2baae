package pcp

// Node is one element of a working set: a residual paired with the
// bookkeeping needed to report a solution once IsComplete() becomes true.
// Node is a plain value — no pointers, no finalizers — so chunks of Node
// are memcpy-able and a Chunk[Node] can be reused across iterations without
// per-element cleanup.
//
// Sum and Depth are uint64 rather than the u16 the original Rust source
// used: u16 overflows silently past 65535 pairs applied, and nothing in
// this design needs the smaller width (see SPEC_FULL.md §9 Open Question
// (c)).
type Node struct {
	State VPair
	Sum   uint64
	Depth uint64
}

// NewNode returns the initial search state: the empty residual, zero sum,
// zero depth.
func NewNode() Node {
	return Node{State: NewVPair()}
}

// Apply extends n by one configured pair. On success it returns the
// extended node and true; on mismatch, the zero Node and false.
func (n Node) Apply(p ConfiguredPair) (Node, bool) {
	state, ok := n.State.Apply(p.Pair)
	if !ok {
		return Node{}, false
	}
	return Node{
		State: state,
		Sum:   n.Sum + p.SumInc,
		Depth: n.Depth + p.DepthInc,
	}, true
}
