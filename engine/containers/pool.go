package containers

import (
	"github.com/spaghettifunk/vetro/engine/core"
)

// Handle identifies a slot in a Pool: generation in the high 32 bits, index
// in the low 32. A handle stays valid until its slot is freed; freeing bumps
// the slot generation, which invalidates every outstanding handle to it.
type Handle uint64

func NewHandle(generation, index uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32 {
	return uint32(h)
}

func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

// NilHandle never validates against any pool: generations start at 1.
const NilHandle Handle = 0

// Pool is a generational slab allocator. Slots are recycled through a
// free-list; data is reachable only through a live handle.
type Pool[T any] struct {
	freeList    []uint32
	generations []uint32
	data        []T
}

func NewPool[T any](capacity uint32) *Pool[T] {
	p := &Pool[T]{
		freeList:    make([]uint32, 0, capacity),
		generations: make([]uint32, capacity),
		data:        make([]T, capacity),
	}
	for i := uint32(0); i < capacity; i++ {
		p.generations[i] = 1
		p.freeList = append(p.freeList, i)
	}
	return p
}

func (p *Pool[T]) Capacity() uint32 {
	return uint32(len(p.data))
}

func (p *Pool[T]) FreeCount() int {
	return len(p.freeList)
}

func (p *Pool[T]) Alloc() (Handle, error) {
	if len(p.freeList) == 0 {
		return NilHandle, core.ErrPoolExhausted
	}
	index := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]
	return NewHandle(p.generations[index], index), nil
}

func (p *Pool[T]) Alive(h Handle) bool {
	index := h.Index()
	return index < uint32(len(p.data)) && h.Generation() == p.generations[index]
}

// Access resolves a handle to its slot. A stale or foreign handle is a
// caller bug; the error maps to an assertion at the call sites inside the
// frame pipeline.
func (p *Pool[T]) Access(h Handle) (*T, error) {
	if !p.Alive(h) {
		return nil, core.ErrInvalidHandle
	}
	return &p.data[h.Index()], nil
}

// Each visits every slot, live or free. Teardown paths use it to release
// payloads that outlived their handles.
func (p *Pool[T]) Each(fn func(index uint32, item *T)) {
	for i := range p.data {
		fn(uint32(i), &p.data[i])
	}
}

func (p *Pool[T]) Free(h Handle) error {
	if !p.Alive(h) {
		return core.ErrInvalidHandle
	}
	index := h.Index()
	p.generations[index]++
	p.freeList = append(p.freeList, index)
	return nil
}
