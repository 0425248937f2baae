package pcp

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	farm "github.com/dgryski/go-farm"
)

// Global, process-wide atomic counters, exactly as the original Rust source
// keeps them as free-standing statics rather than threading a *Stats
// through every call site (SPEC_FULL.md §9 "Global mutable counters").
// ChunkPool updates the chunk counters directly and each Engine worker adds
// its pair counts once when it finishes; nothing reads them back to steer
// the search — Stats is purely an observer.
var (
	chunkAllocCount   uint64
	chunkDeallocCount uint64
	pairApplyCount    uint64
	pairApplySuccess  uint64
)

func incChunkAlloc()              { atomic.AddUint64(&chunkAllocCount, 1) }
func incChunkDealloc()            { atomic.AddUint64(&chunkDeallocCount, 1) }
func addPairsApplied(n uint64)    { atomic.AddUint64(&pairApplyCount, n) }
func addPairsSucceeded(n uint64)  { atomic.AddUint64(&pairApplySuccess, n) }
func loadChunkAlloc() uint64      { return atomic.LoadUint64(&chunkAllocCount) }
func loadChunkDealloc() uint64    { return atomic.LoadUint64(&chunkDeallocCount) }
func loadPairsApplied() uint64    { return atomic.LoadUint64(&pairApplyCount) }
func loadPairsSucceeded() uint64  { return atomic.LoadUint64(&pairApplySuccess) }

// ResetCounters zeros the global counters. Exposed so a host process that
// runs more than one search (e.g. a test binary) can get a clean baseline;
// the Engine itself never calls it.
func ResetCounters() {
	atomic.StoreUint64(&chunkAllocCount, 0)
	atomic.StoreUint64(&chunkDeallocCount, 0)
	atomic.StoreUint64(&pairApplyCount, 0)
	atomic.StoreUint64(&pairApplySuccess, 0)
}

// printInterval throttles progress output to roughly once per second,
// matching stats.rs's PRINT_INTERVAL (SPEC_FULL.md §12).
const printInterval = 1 * time.Second

// IterStats tracks per-iteration wall-clock timings and throttles progress
// printing. It is advisory only: nothing in the Engine's control flow reads
// it back.
type IterStats struct {
	out       io.Writer
	timings   []time.Duration
	iterCount int
	lastPrint time.Time
	start     time.Time

	mu           sync.Mutex
	fingerprints map[uint64]struct{}
}

// NewIterStats returns a fresh IterStats writing progress lines to out.
func NewIterStats(out io.Writer) *IterStats {
	now := time.Now()
	return &IterStats{
		out:          out,
		lastPrint:    now,
		start:        now,
		fingerprints: make(map[uint64]struct{}),
	}
}

// Iter runs f as one BFS iteration, timing it and — if at least
// printInterval has elapsed since the last progress line — printing "Now
// at depth D" first.
func (s *IterStats) Iter(depth int, f func()) {
	begin := time.Now()
	s.iterCount++
	s.mu.Lock()
	for k := range s.fingerprints {
		delete(s.fingerprints, k)
	}
	s.mu.Unlock()

	if begin.Sub(s.lastPrint) >= printInterval {
		fmt.Fprintf(s.out, "Now at depth %d\n", depth)
		s.lastPrint = begin
	}

	f()

	s.timings = append(s.timings, time.Since(begin))
}

// FingerprintSet is a worker-local accumulator for the "distinct residuals
// seen" advisory stat. Each worker keeps its own set during an iteration
// and merges it into the shared IterStats once, at worker end — the same
// accumulate-locally-then-merge-once shape SPEC_FULL.md §5 requires of the
// apply counters, applied here to avoid a mutex per successful apply.
type FingerprintSet map[uint64]struct{}

// Note records a node's residual fingerprint. Never used to skip or merge
// search work — spec.md §1/§7 explicitly forbid deduplication; it is purely
// a printed count, grounded the same way fusion/kmer_index.go uses
// github.com/dgryski/go-farm for cheap table-keyed hashing.
func (fs FingerprintSet) Note(n Node) {
	fs[fingerprint(n.State)] = struct{}{}
}

// Merge folds a worker-local FingerprintSet into s after that worker has
// finished its share of the current iteration.
func (s *IterStats) Merge(fs FingerprintSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range fs {
		s.fingerprints[k] = struct{}{}
	}
}

func fingerprint(v VPair) uint64 {
	var buf [BCNT*8 + 3]byte
	off := 0
	for _, blk := range v.data {
		for i := 0; i < 8; i++ {
			buf[off] = byte(blk >> (8 * i))
			off++
		}
	}
	buf[off] = byte(v.leading)
	buf[off+1] = v.prefix
	buf[off+2] = v.used
	return farm.Hash64(buf[:])
}

// IterCount returns the number of iterations Iter has run so far.
func (s *IterStats) IterCount() int {
	return s.iterCount
}

func (s *IterStats) totalDuration() time.Duration {
	var total time.Duration
	for _, d := range s.timings {
		total += d
	}
	return total
}

// Print writes the tab-aligned statistics block to out, in the shape
// SPEC_FULL.md §6 calls for: chunk size/allocated/deallocated/memory,
// chunks remaining in the current working set, pairs applied (total &
// successful), iteration count, total time, and throughput.
//
// currentLen is the size of the single working set Run() left behind
// (Engine.LastChunks) — stats.rs's print() takes exactly one chunk slice,
// not a current/next pair, and reports "chunks in current working set".
func (s *IterStats) Print(out io.Writer, currentLen int) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	alloc := loadChunkAlloc()
	dealloc := loadChunkDealloc()
	applied := loadPairsApplied()
	succeeded := loadPairsSucceeded()
	total := s.totalDuration()

	fmt.Fprintf(w, "chunk size (MiB):\t%d\n", ChunkSize/(1<<20))
	fmt.Fprintf(w, "chunks allocated:\t%d\n", alloc)
	fmt.Fprintf(w, "chunks deallocated:\t%d\n", dealloc)
	fmt.Fprintf(w, "chunk memory (MiB):\t%d\n", alloc*uint64(ChunkSize)/(1<<20))
	fmt.Fprintf(w, "chunks in current working set:\t%d\n", currentLen)
	s.mu.Lock()
	distinct := len(s.fingerprints)
	s.mu.Unlock()
	fmt.Fprintf(w, "distinct residuals seen (last iter):\t%d\n", distinct)
	fmt.Fprintf(w, "pairs applied:\t%d\n", applied)
	fmt.Fprintf(w, "pairs applied successfully:\t%d\n", succeeded)
	fmt.Fprintf(w, "iterations:\t%d\n", s.iterCount)
	fmt.Fprintf(w, "total time:\t%s\n", total)
	if ms := total.Milliseconds(); ms > 0 {
		fmt.Fprintf(w, "throughput (ops/ms):\t%d\n", int64(applied)/ms)
	} else {
		fmt.Fprintf(w, "throughput (ops/ms):\t-\n")
	}

	w.Flush()
}
