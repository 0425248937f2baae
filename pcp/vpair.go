package pcp

// BCNT is the per-state maximum number of 64-bit blocks of residual a VPair
// can hold (320 bits of residual by default). Raising it lets the search
// track longer mismatches between the two sides at the cost of a larger
// Node, and therefore a smaller Chunk capacity; see CapacityError.
const BCNT = 5

// Side identifies which half of a pair — top or bottom — currently holds
// the unmatched residual.
type Side uint8

const (
	// Top is the convention NewVPair uses for the empty residual: with
	// neither side ahead the choice is arbitrary, but it must be applied
	// consistently so the very first pair always enters VPair.Apply through
	// the single-head path (spec Open Question (a)).
	Top Side = iota
	Bot
)

// Switched returns the other side.
func (s Side) Switched() Side {
	if s == Top {
		return Bot
	}
	return Top
}

func (s Side) String() string {
	if s == Top {
		return "top"
	}
	return "bot"
}

// VPair is the residual state: the bit-string by which the leading side's
// concatenation currently exceeds the following side's. See SPEC_FULL.md §3
// for the field-level invariants; they are not restated
// here since apply() is the only place that can violate or restore them.
type VPair struct {
	data    [BCNT]uint64
	leading Side
	prefix  uint8
	used    uint8
	tail    uint8
}

// NewVPair returns the empty residual: the initial state of every search.
func NewVPair() VPair {
	return VPair{leading: Top}
}

// IsComplete reports whether the residual has been fully matched — a PCP
// solution witness at the current depth.
func (v VPair) IsComplete() bool {
	return v.tail == 0 && v.used == 0
}

// Leading reports which side is currently ahead.
func (v VPair) Leading() Side {
	return v.leading
}

// ResidualBits returns the number of valid residual bits. It exists purely
// for diagnostics (the --analyze sort key, fingerprinting); nothing in
// apply() depends on it.
func (v VPair) ResidualBits() int {
	if v.tail == 0 {
		return int(v.used) - int(v.prefix)
	}
	return (BlkBits - int(v.prefix)) + BlkBits*(int(v.tail)-1) + int(v.used)
}

// applyResult tags the four disjoint outcomes of matching one head block
// against the follow/lead Parts. Modeled as a closed enum, not a hierarchy
// of types: dispatch in Apply is a two-level switch.
type applyResult uint8

const (
	resultMismatch applyResult = iota
	resultMatch
	resultMatchRemaining
	resultLeadSwitch
)

// vHead is a read/write view of one of VPair's first two blocks, exposing
// only the bits an apply() call is allowed to touch.
type vHead struct {
	data   uint64
	prefix uint8
	used   uint8
}

func (v VPair) head() vHead {
	used := v.used
	if v.tail > 0 {
		used = BlkBits
	}
	return vHead{data: v.data[0], prefix: v.prefix, used: used}
}

func (v VPair) head2() vHead {
	used := v.used
	if v.tail > 1 {
		used = BlkBits
	}
	return vHead{data: v.data[1], prefix: 0, used: used}
}

// apply matches the overlapping prefix of follow against this head block.
// On a mismatch, follow/lead are left partially shifted — callers must
// discard them (Apply never reuses follow/lead after a mismatch).
func (h *vHead) apply(follow, lead *Part) applyResult {
	overlap := h.used - h.prefix
	if fl := follow.Len(); overlap > fl {
		overlap = fl
	}

	m := mask64(overlap)
	headBits := (h.data >> h.prefix) & m
	followBits := follow.Data() & m
	if headBits != followBits {
		return resultMismatch
	}

	h.prefix += overlap
	follow.shift(overlap)

	if h.prefix == BlkBits {
		return resultMatchRemaining
	}

	// follow has caught up to within this head block; eliminate whatever
	// common prefix remains between follow and lead.
	shiftPrefix(follow, lead)

	switch {
	case lead.Len() == 0:
		return resultLeadSwitch
	case follow.Len() == 0:
		return resultMatch
	default:
		return resultMismatch
	}
}

// Apply extends this residual by one configured pair, returning the next
// residual and true on success, or the zero VPair and false on mismatch.
// Apply never mutates its receiver: it is a pure function of (VPair, Pair).
func (v VPair) Apply(p Pair) (VPair, bool) {
	lead, follow := p.A, p.B
	if v.leading == Bot {
		lead, follow = p.B, p.A
	}

	h := v.head()
	switch h.apply(&follow, &lead) {
	case resultMismatch:
		return VPair{}, false
	case resultMatch:
		return v.withOffsetPrefixAndLead(0, h.prefix, lead), true
	case resultLeadSwitch:
		return v.switchedWithNewLead(follow), true
	case resultMatchRemaining:
		h2 := v.head2()
		switch h2.apply(&follow, &lead) {
		case resultMismatch:
			return VPair{}, false
		case resultMatch:
			return v.withOffsetPrefixAndLead(1, h2.prefix, lead), true
		case resultLeadSwitch:
			return v.switchedWithNewLead(follow), true
		default:
			// A Part holds at most ValBits=56 bits, which can never span a
			// third 64-bit block once two have already been exhausted.
			panic("pcp: matchRemaining twice in a single apply")
		}
	}
	panic("pcp: unreachable apply result")
}

// withOffsetPrefixAndLead builds the Match-branch successor: the tail
// blocks starting at offset (0 or 1, depending on whether head or head2
// matched) are kept, the new head prefix is installed, and the remaining
// lead bits are appended.
func (v VPair) withOffsetPrefixAndLead(offset, prefix uint8, lead Part) VPair {
	p := VPair{
		prefix:  prefix,
		used:    v.used,
		leading: v.leading,
		tail:    v.tail - offset,
	}
	copy(p.data[:], v.data[offset:])
	p.applyLead(lead)
	return p
}

// switchedWithNewLead builds the LeadSwitch-branch successor: the residual
// now belongs to the other side, entirely made of the remaining follow
// bits.
func (v VPair) switchedWithNewLead(newLead Part) VPair {
	p := VPair{
		leading: v.leading.Switched(),
		used:    newLead.Len(),
	}
	p.data[0] = newLead.Data()
	return p
}

// applyLead appends lead's bits onto the tail of p, opening a new block
// when the current tail block fills up. Invariant preserved: p.used != 64.
func (p *VPair) applyLead(lead Part) {
	pushable := uint8(BlkBits) - p.used
	if l := lead.Len(); pushable > l {
		pushable = l
	}

	p.data[p.tail] |= lead.shiftData(pushable) << p.used

	newUsed := p.used + pushable
	if lead.Len() == 0 && newUsed < BlkBits {
		p.used = newUsed
		return
	}

	p.push(lead.Data())
	p.used = lead.Len()
}

// push opens a new tail block holding block's bits. Panics (a
// CapacityError, per spec §4.2/§9: this is an unrecoverable configuration
// error, not a search outcome) if BCNT is too small for this problem.
func (p *VPair) push(block uint64) {
	if !(p.tail+1 < BCNT) {
		panic(newCapacityError())
	}
	p.tail++
	p.data[p.tail] = block
}
