package pcp

import (
	"sync"
	"unsafe"
)

// ChunkSize is the size, in bytes, of one chunk's backing buffer. Chunks
// are never resized; a Chunk's capacity (ChunkSize / sizeof(Node)) is fixed
// at package init. Grounded on grailbio/base/recordio/internal's ChunkWriter
// (fixed-size record buffers reused through a free-list) and on the
// original Rust chunk_vec.rs, which hard-codes CHUNK_MB=64.
const ChunkSize = 64 << 20 // 64 MiB

var nodeSize = int(unsafe.Sizeof(Node{}))

// chunkCapacity is the number of Node records that fit in one chunk.
var chunkCapacity = ChunkSize / nodeSize

// Chunk is an owning handle to a ChunkSize-byte buffer, typed as a
// fixed-capacity, append-only vector of Node. Chunks are recycled through a
// ChunkPool rather than freed; they are never read and written
// concurrently, since ownership moves through the pool, the working-set
// queues, and a worker's ChunkWriter one at a time (SPEC_FULL.md §5).
type Chunk struct {
	buf  []Node
	used int
}

func newChunk() *Chunk {
	return &Chunk{buf: make([]Node, chunkCapacity)}
}

// Len returns the number of valid records in the chunk.
func (c *Chunk) Len() int { return c.used }

// Cap returns the chunk's fixed record capacity.
func (c *Chunk) Cap() int { return len(c.buf) }

// Nodes returns the valid prefix of the chunk's backing array. The slice
// aliases the chunk's storage and is only valid until the chunk is next
// reset (via ChunkPool.Release) or written to.
func (c *Chunk) Nodes() []Node { return c.buf[:c.used] }

func (c *Chunk) reset() { c.used = 0 }

// ChunkWriter pairs a Chunk with a write cursor. It consumes one chunk and
// writes records until full.
type ChunkWriter struct {
	chunk *Chunk
}

// Push appends n to the chunk. It returns false, leaving the chunk
// unmodified, if the chunk is already at capacity — the caller is expected
// to publish the full chunk and obtain a fresh writer (typically seeded
// with n via ChunkPool.WriterWith) before retrying.
func (w *ChunkWriter) Push(n Node) bool {
	if w.chunk.used >= len(w.chunk.buf) {
		return false
	}
	w.chunk.buf[w.chunk.used] = n
	w.chunk.used++
	return true
}

// Chunk hands back the underlying Chunk, publishing whatever was written so
// far (used is already current; there is nothing further to flush). After
// this call the ChunkWriter must not be reused.
func (w *ChunkWriter) Chunk() *Chunk { return w.chunk }

// ChunkPool is a slab-style free-list of Chunks. Chunks are allocated from
// the Go heap on demand and recycled rather than freed for the life of a
// search; Close frees everything, for use once a run has fully quiesced.
// Every allocation and deallocation is mirrored into the package's atomic
// stats counters, exactly as the original chunk_vec.rs calls
// stats::chunk_allocated()/chunk_deallocated() directly from Chunk::new()
// and Drop — Stats observes, it does not own, allocation policy.
type ChunkPool struct {
	mu   sync.Mutex
	free []*Chunk
}

// NewChunkPool returns an empty pool; its first Acquire calls allocate.
func NewChunkPool() *ChunkPool {
	return &ChunkPool{}
}

// Acquire pops a free chunk or allocates a fresh one.
func (p *ChunkPool) Acquire() *Chunk {
	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		incChunkAlloc()
		return newChunk()
	}
	c := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	p.mu.Unlock()
	return c
}

// AcquireWith acquires a chunk and writes v as its first record.
func (p *ChunkPool) AcquireWith(v Node) *Chunk {
	c := p.Acquire()
	c.buf[0] = v
	c.used = 1
	return c
}

// Release resets c and returns it to the free list.
func (p *ChunkPool) Release(c *Chunk) {
	c.reset()
	p.mu.Lock()
	p.free = append(p.free, c)
	p.mu.Unlock()
}

// Writer acquires a fresh chunk and wraps it in a ChunkWriter.
func (p *ChunkPool) Writer() *ChunkWriter {
	return &ChunkWriter{chunk: p.Acquire()}
}

// WriterWith acquires a chunk seeded with v and wraps it in a ChunkWriter.
func (p *ChunkPool) WriterWith(v Node) *ChunkWriter {
	return &ChunkWriter{chunk: p.AcquireWith(v)}
}

// Close frees every chunk currently on the free list, recording one
// deallocation per chunk. It must only be called once every chunk that was
// ever acquired has been released back to the pool (directly, or via the
// working sets) — calling it mid-run would desynchronize the
// chunk_alloc == chunk_dealloc invariant tests check for at quiescence.
func (p *ChunkPool) Close() {
	p.mu.Lock()
	n := len(p.free)
	p.free = nil
	p.mu.Unlock()
	for i := 0; i < n; i++ {
		incChunkDealloc()
	}
}

// Size reports the number of chunks currently idle in the pool.
func (p *ChunkPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
