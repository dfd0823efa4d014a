package vm

// DefaultGCMaxCount is the live-object threshold that triggers a
// collection, matching the spec's default of 16.
const DefaultGCMaxCount = 16

// RootProvider enumerates every Variant that is part of VM state and
// could therefore denote a live heap object: the data pool, the
// occupied portion of the evaluation and locals stacks, the
// return-value register, and any transient roots a native frame has
// registered. The VM implements this interface; GC never reaches into
// VM internals any other way.
type RootProvider interface {
	Roots(yield func(*Variant))
}

// GC is a non-incremental, non-moving mark-and-sweep collector layered
// over a Heap. It is never run inside the hot path of allocation —
// only explicitly (Collect) or at safe points the VM chooses (function
// return, the GC_COLLECT opcode).
type GC struct {
	heap *Heap

	listHead   *Header
	aliveCount int

	maxCount   int
	initialMax int
	adaptive   bool
}

// NewGC creates a GC with the given initial threshold. adaptive
// selects the optional threshold-scaling policy described in spec.md
// §4.3; when false, maxCount never changes after construction.
func NewGC(maxCount int, adaptive bool) *GC {
	if maxCount <= 0 {
		maxCount = DefaultGCMaxCount
	}
	return &GC{maxCount: maxCount, initialMax: maxCount, adaptive: adaptive}
}

// AliveCount returns the number of objects currently reachable from
// the last completed mark phase (or currently linked, between
// collections).
func (g *GC) AliveCount() int { return g.aliveCount }

// NeedToCollect reports whether the live-object count has reached the
// current threshold.
func (g *GC) NeedToCollect() bool { return g.aliveCount >= g.maxCount }

// MaxCount returns the current collection threshold.
func (g *GC) MaxCount() int { return g.maxCount }

// Collect runs one full mark-and-sweep cycle against roots. It never
// fails: an allocator failure during the collector's own bookkeeping
// would be a Go-runtime-level out-of-memory, which panics, matching
// "the GC does not fail."
func (g *GC) Collect(roots RootProvider) {
	g.mark(roots)
	survivors := g.sweep()
	if g.adaptive {
		if candidate := 2 * survivors; candidate > g.initialMax {
			g.maxCount = candidate
		} else {
			g.maxCount = g.initialMax
		}
	}
}

func (g *GC) mark(roots RootProvider) {
	roots.Roots(func(v *Variant) {
		g.markVariant(v)
	})
}

func (g *GC) markVariant(v *Variant) {
	hdr := v.header()
	if hdr == nil || hdr.marked {
		return
	}
	hdr.marked = true
	hdr.self.trace(g.markVariant)
}

// sweep walks the intrusive live-object list once, clearing mark bits
// on survivors and freeing everything unmarked. It returns the number
// of survivors.
func (g *GC) sweep() int {
	var prev *Header
	cur := g.listHead
	survivors := 0
	for cur != nil {
		next := cur.gcNext
		if cur.marked {
			cur.marked = false
			prev = cur
			survivors++
		} else {
			if prev == nil {
				g.listHead = next
			} else {
				prev.gcNext = next
			}
			g.aliveCount--
			g.heap.free(cur)
		}
		cur = next
	}
	return survivors
}

// Shutdown destructs every remaining live object and drains both
// pools. Called once, when the owning VM is torn down.
func (g *GC) Shutdown() {
	cur := g.listHead
	for cur != nil {
		next := cur.gcNext
		g.aliveCount--
		g.heap.free(cur)
		cur = next
	}
	g.listHead = nil
	g.heap.Drain()
}
