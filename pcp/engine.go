package pcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Solution is the witness an Engine reports on success: the accumulated Sum
// label and the Depth (number of pairs applied) at which the residual first
// became empty.
type Solution struct {
	Sum   uint64
	Depth uint64
}

// workingSet is a mutex-guarded LIFO stack of chunks, used for both the
// "current" and "next" queues a BFS iteration drains from and publishes to.
// LIFO rather than FIFO: order across chunks is immaterial to correctness
// (PCP admits no meaningful notion of "first" solution beyond minimal
// depth, which every node at a given iteration shares), and a stack needs no
// head/tail bookkeeping under the lock.
type workingSet struct {
	mu     sync.Mutex
	chunks []*Chunk
}

func (w *workingSet) push(c *Chunk) {
	w.mu.Lock()
	w.chunks = append(w.chunks, c)
	w.mu.Unlock()
}

func (w *workingSet) pop() (*Chunk, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.chunks)
	if n == 0 {
		return nil, false
	}
	c := w.chunks[n-1]
	w.chunks[n-1] = nil
	w.chunks = w.chunks[:n-1]
	return c, true
}

func (w *workingSet) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.chunks)
}

func (w *workingSet) snapshot() []*Chunk {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Chunk, len(w.chunks))
	copy(out, w.chunks)
	return out
}

// Engine runs the parallel breadth-first brute-force search described in
// SPEC_FULL.md §§2-5: every configured pair is applied to every surviving
// node, once per iteration, until a node's residual empties (success), the
// iteration bound is reached (no success), or ctx is cancelled.
//
// Grounded on the original solve.rs main loop and on markduplicates'
// sync.WaitGroup worker-pool shape; the "publish on drop" discipline below
// follows chunk_vec.rs's ChunkVec::drop, adapted to Go's defer.
type Engine struct {
	Pairs   []ConfiguredPair
	Workers int
	MaxIter uint64
	Pool    *ChunkPool
	Stats   *IterStats

	// Out receives the load-bearing result lines ("success! n: ..., s:
	// ...", "no success") via fmt, not the structured logger — scripts may
	// grep for these exact strings (SPEC_FULL.md §6). Defaults to os.Stdout.
	Out io.Writer

	success atomic.Bool
	done    atomic.Bool
	result  atomic.Value // Solution

	outMu      sync.Mutex
	cancel     context.CancelFunc
	lastChunks []*Chunk
	fatal      errors.Once
}

// LastChunks returns a snapshot of the working set current held when Run
// returned — whichever side of the swap was about to become "current" for
// the next (never-run) iteration. It exists solely for the --analyze
// diagnostic; the Engine itself never reads it back.
func (e *Engine) LastChunks() []*Chunk {
	return e.lastChunks
}

// NewEngine builds an Engine ready to Run. workers <= 0 means
// runtime.NumCPU(); maxIter == 0 means unbounded.
func NewEngine(pairs []ConfiguredPair, workers int, maxIter uint64, pool *ChunkPool, stats *IterStats) *Engine {
	return &Engine{
		Pairs:   pairs,
		Workers: workers,
		MaxIter: maxIter,
		Pool:    pool,
		Stats:   stats,
		Out:     os.Stdout,
	}
}

// Stop cancels any in-flight Run, causing it to return early with
// found==false once the current iteration has finished and Run's loop
// observes the cancellation before starting the next one. The
// CLI layer's signal.Notify adapter calls this in response to SIGINT
// (SPEC_FULL.md §6); the Engine never installs its own signal handler.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Run drives the search to completion, returning the solution found (if
// any) and whether a solution was found at all. It returns early, with
// found==false, if ctx is cancelled before a solution is reached.
func (e *Engine) Run(ctx context.Context) (Solution, bool) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()

	if e.Out == nil {
		e.Out = os.Stdout
	}

	current := &workingSet{}
	next := &workingSet{}
	current.push(e.Pool.AcquireWith(NewNode()))

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	for depth := 0; e.MaxIter == 0 || uint64(depth) < e.MaxIter; depth++ {
		select {
		case <-ctx.Done():
			e.done.Store(true)
			e.lastChunks = current.snapshot()
			fmt.Fprintln(e.Out, "no success")
			return Solution{}, false
		default:
		}

		e.Stats.Iter(depth, func() {
			e.runIteration(ctx, current, next, workers)
		})

		// A CapacityError recovered from a worker's apply call is never
		// silently swallowed (spec §7/§9): once every worker of the
		// iteration that raised it has published, report it and halt the
		// process, exactly as markduplicates.generatePAM reports the first
		// error its workers accumulated via errors.Once.
		if err := e.fatal.Err(); err != nil {
			log.Fatalf("pcp: %v", err)
		}

		current, next = next, current

		if e.success.Load() {
			break
		}
	}

	e.done.Store(true)
	e.lastChunks = current.snapshot()
	if e.success.Load() {
		sol, _ := e.result.Load().(Solution)
		return sol, true
	}
	fmt.Fprintln(e.Out, "no success")
	return Solution{}, false
}

// runIteration fans work for one BFS level out across workers, draining
// current and publishing survivors into next. It returns once current is
// empty and every worker's last partial chunk has been published.
func (e *Engine) runIteration(ctx context.Context, current, next *workingSet, workers int) {
	log.Debug.Printf("iteration start: %d workers, %d chunks queued", workers, current.len())
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			e.work(ctx, current, next)
		}()
	}
	wg.Wait()
}

// work is one worker's share of an iteration: pop chunks of current,
// apply every configured pair to every node, push survivors through a
// thread-local ChunkWriter. Counters and fingerprints accumulate locally and
// are merged into the shared stats exactly once, when the worker's share of
// the iteration ends — SPEC_FULL.md §5 forbids a lock per successful apply.
func (e *Engine) work(ctx context.Context, current, next *workingSet) {
	writer := e.Pool.Writer()
	var applied, succeeded uint64
	fp := make(FingerprintSet)

	defer func() {
		addPairsApplied(applied)
		addPairsSucceeded(succeeded)
		e.Stats.Merge(fp)
		if writer.Chunk().Len() > 0 {
			next.push(writer.Chunk())
		} else {
			e.Pool.Release(writer.Chunk())
		}
	}()

	// Drains current to empty every call, with no early exit on success or
	// cancellation: spec.md §4.5/§5 requires the current iteration to
	// finish once started, so every chunk a worker might otherwise leave
	// behind gets processed and its Nodes either published or released —
	// the chunk-conservation invariant depends on it.
	for {
		c, ok := current.pop()
		if !ok {
			return
		}

		for _, node := range c.Nodes() {
			for _, pair := range e.Pairs {
				applied++
				child, ok, err := e.safeApply(node, pair)
				if err != nil {
					e.fatal.Set(err)
					continue
				}
				if !ok {
					continue
				}
				succeeded++

				if child.State.IsComplete() {
					// Printed for every completing node, not just the
					// first — matching the original solve.rs, which has
					// no guard around its println!. e.result keeps only
					// the first (for callers of Run that want a single
					// witness); stdout gets them all.
					sol := Solution{Sum: child.Sum, Depth: child.Depth}
					e.outMu.Lock()
					fmt.Fprintf(e.Out, "success! n: %d, s: %d\n", sol.Depth, sol.Sum)
					e.outMu.Unlock()
					e.success.Store(true)
					e.result.CompareAndSwap(nil, sol)
				}

				fp.Note(child)

				// Always published via the writer, even when complete: the
				// loop never short-circuits mid-chunk (spec.md §4.5).
				if !writer.Push(child) {
					next.push(writer.Chunk())
					writer = e.Pool.WriterWith(child)
				}
			}
		}

		e.Pool.Release(c)
	}
}

// safeApply calls node.Apply, recovering any panic it raises — a
// CapacityError from VPair.push (spec §4.2/§9) or an unreachable-state
// assertion — and reporting it as an error instead of crashing the worker
// goroutine mid-chunk, so the rest of the chunk still gets published or
// released and the chunk-conservation invariant holds even on a fatal
// condition.
func (e *Engine) safeApply(node Node, pair ConfiguredPair) (child Node, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if asErr, isErr := r.(error); isErr {
				err = asErr
			} else {
				err = fmt.Errorf("pcp: %v", r)
			}
		}
	}()
	child, ok = node.Apply(pair)
	return
}
