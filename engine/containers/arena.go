package containers

import (
	"github.com/spaghettifunk/vetro/engine/core"
)

const arenaAlign = 8

// Arena is a bump allocator over a contiguous byte region. Allocations are
// 8-byte aligned and never individually freed; Clear rewinds everything.
type Arena struct {
	data   []byte
	cursor uint64
}

func NewArena(size uint64) *Arena {
	return &Arena{
		data: make([]byte, size),
	}
}

func (a *Arena) Clear() {
	a.cursor = 0
}

func (a *Arena) Cursor() uint64 {
	return a.cursor
}

func (a *Arena) Capacity() uint64 {
	return uint64(len(a.data))
}

func alignUp(n uint64) uint64 {
	return (n + arenaAlign - 1) &^ (arenaAlign - 1)
}

// Push reserves n bytes and returns the slice backing them. The reservation
// advances the cursor by n rounded up to the alignment.
func (a *Arena) Push(n uint64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	aligned := alignUp(n)
	if a.cursor+aligned > uint64(len(a.data)) {
		core.LogError("arena push of %d bytes failed (cursor=%d capacity=%d)", n, a.cursor, len(a.data))
		return nil, core.ErrOutOfArena
	}
	mem := a.data[a.cursor : a.cursor+n : a.cursor+aligned]
	a.cursor += aligned
	return mem, nil
}

// PushZero is Push with the returned bytes cleared. The region may hold stale
// data from a previous lease, so the clear is not optional.
func (a *Arena) PushZero(n uint64) ([]byte, error) {
	mem, err := a.Push(n)
	if err != nil {
		return nil, err
	}
	for i := range mem {
		mem[i] = 0
	}
	return mem, nil
}

// ScratchLease captures an arena and its cursor at lease time. Release rewinds
// the cursor to the mark, provided nothing rewound it below the mark already.
type ScratchLease struct {
	Arena *Arena
	mark  uint64
}

func (s ScratchLease) Release() {
	if s.Arena.cursor >= s.mark {
		s.Arena.cursor = s.mark
	}
}

// ScratchPool hands out short-lived arenas to callees that must not alias the
// arenas their caller is building into. Two scratch arenas suffice for the
// renderer's call depths.
type ScratchPool struct {
	arenas [2]*Arena
}

func NewScratchPool(size uint64) *ScratchPool {
	return &ScratchPool{
		arenas: [2]*Arena{NewArena(size), NewArena(size)},
	}
}

// GetScratch returns a lease on a scratch arena that is not in the conflict
// set.
func (sp *ScratchPool) GetScratch(conflicts ...*Arena) (ScratchLease, error) {
	for _, a := range sp.arenas {
		conflicting := false
		for _, c := range conflicts {
			if c == a {
				conflicting = true
				break
			}
		}
		if !conflicting {
			return ScratchLease{Arena: a, mark: a.cursor}, nil
		}
	}
	return ScratchLease{}, core.ErrNoScratchAvailable
}
