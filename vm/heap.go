package vm

import (
	"fmt"

	"github.com/lavascript-go/lavascript/pool"
)

// Heap is the size-classed allocator behind every gcObject. The spec
// describes two pools (small/big) sharing one cell size per class via
// a union; Go has no layout-compatible union across unrelated struct
// types without unsafe casts between them, which is a correctness
// hazard this module declines to take (see DESIGN.md). Instead Heap
// composes one pool.BlockPool[T] per concrete type and exposes the
// two-pool *contract* — SmallStats/BigStats aggregate the per-type
// counters, so every invariant about "the small pool" or "the big
// pool" holds over the aggregate exactly as specified.
type Heap struct {
	objects *pool.BlockPool[LSObject]
	structs *pool.BlockPool[LSStruct]
	enums   *pool.BlockPool[LSEnum]
	strs    *pool.BlockPool[LSStr]
	arrays  *pool.BlockPool[LSArray]

	gc *GC
}

// PoolStats aggregates counters across every pool in a size class.
type PoolStats struct {
	TotalAllocs  uint64
	TotalFrees   uint64
	ObjectsAlive uint64
	BlockCount   int
}

// NewHeap creates a heap with the given granularity and debug mode,
// wired to gc for live-object bookkeeping.
func NewHeap(granularity int, debug bool, gc *GC) *Heap {
	h := &Heap{
		objects: pool.New[LSObject](granularity, debug),
		structs: pool.New[LSStruct](granularity, debug),
		enums:   pool.New[LSEnum](granularity, debug),
		strs:    pool.New[LSStr](granularity, debug),
		arrays:  pool.New[LSArray](granularity, debug),
		gc:      gc,
	}
	gc.heap = h
	return h
}

func (h *Heap) link(hdr *Header) {
	hdr.gcNext = h.gc.listHead
	h.gc.listHead = hdr
	h.gc.aliveCount++
}

// NewObject allocates and links an LSObject.
func (h *Heap) NewObject(t *TypeDescriptor, fields []Variant) *LSObject {
	o := h.objects.Allocate()
	*o = LSObject{Header: Header{kind: KindLSObject, isSmall: true}, Type: t, Fields: fields}
	o.self = o
	h.link(&o.Header)
	return o
}

// NewStruct allocates and links an LSStruct.
func (h *Heap) NewStruct(fields []Variant) *LSStruct {
	s := h.structs.Allocate()
	*s = LSStruct{Header: Header{kind: KindLSStruct, isSmall: true}, Fields: fields}
	s.self = s
	h.link(&s.Header)
	return s
}

// NewEnum allocates and links an LSEnum.
func (h *Heap) NewEnum(tag int32, payload Variant) *LSEnum {
	e := h.enums.Allocate()
	*e = LSEnum{Header: Header{kind: KindLSEnum, isSmall: true}, Tag: tag, Payload: payload}
	e.self = e
	h.link(&e.Header)
	return e
}

// NewString allocates and links an LSStr.
func (h *Heap) NewString(value string) *LSStr {
	s := h.strs.Allocate()
	*s = LSStr{Header: Header{kind: KindLSStr, isSmall: false}, Value: value}
	s.self = s
	h.link(&s.Header)
	return s
}

// NewArray allocates and links an LSArray.
func (h *Heap) NewArray(elems []Variant) *LSArray {
	a := h.arrays.Allocate()
	*a = LSArray{Header: Header{kind: KindLSArray, isSmall: false}, Elems: elems}
	a.self = a
	h.link(&a.Header)
	return a
}

// free destructs and returns hdr's cell to the pool dictated by its
// kind. The caller must have already unlinked hdr from the GC list.
// hdr.self recovers the concrete pointer — the Go-idiomatic stand-in
// for dispatching through a virtual destructor.
func (h *Heap) free(hdr *Header) {
	switch hdr.kind {
	case KindLSObject:
		o := hdr.self.(*LSObject)
		*o = LSObject{}
		h.objects.Deallocate(o)
	case KindLSStruct:
		s := hdr.self.(*LSStruct)
		*s = LSStruct{}
		h.structs.Deallocate(s)
	case KindLSEnum:
		e := hdr.self.(*LSEnum)
		*e = LSEnum{}
		h.enums.Deallocate(e)
	case KindLSStr:
		s := hdr.self.(*LSStr)
		*s = LSStr{}
		h.strs.Deallocate(s)
	case KindLSArray:
		a := hdr.self.(*LSArray)
		*a = LSArray{}
		h.arrays.Deallocate(a)
	default:
		panic(fmt.Sprintf("vm: heap.free: unknown object kind %v", hdr.kind))
	}
}

// SmallStats aggregates the LSObject/LSStruct/LSEnum pools.
func (h *Heap) SmallStats() PoolStats {
	return sumStats(
		statsOf(h.objects),
		statsOf(h.structs),
		statsOf(h.enums),
	)
}

// BigStats aggregates the LSStr/LSArray pools.
func (h *Heap) BigStats() PoolStats {
	return sumStats(
		statsOf(h.strs),
		statsOf(h.arrays),
	)
}

type counters interface {
	TotalAllocs() uint64
	TotalFrees() uint64
	ObjectsAlive() uint64
	BlockCount() int
}

func statsOf(p counters) PoolStats {
	return PoolStats{
		TotalAllocs:  p.TotalAllocs(),
		TotalFrees:   p.TotalFrees(),
		ObjectsAlive: p.ObjectsAlive(),
		BlockCount:   p.BlockCount(),
	}
}

func sumStats(stats ...PoolStats) PoolStats {
	var total PoolStats
	for _, s := range stats {
		total.TotalAllocs += s.TotalAllocs
		total.TotalFrees += s.TotalFrees
		total.ObjectsAlive += s.ObjectsAlive
		total.BlockCount += s.BlockCount
	}
	return total
}

// Drain releases every block in every pool. Used at VM shutdown after
// the GC has already destructed every reachable object.
func (h *Heap) Drain() {
	h.objects.Drain()
	h.structs.Drain()
	h.enums.Drain()
	h.strs.Drain()
	h.arrays.Drain()
}
