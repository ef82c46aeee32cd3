package disk_allocator

import "fmt"

// empty marks an unused entry value, run length, directory field or file ID.
const empty = -1

// entry is one addressable storage unit of the block store.
type entry struct {
	index int
	block int
	value int
	// runLength is only used by the index blocks of contiguous-indexed
	// allocation.
	runLength int
}

// blockStore holds every entry after the superblock. Entries are addressed by
// their position in entries, so the first entry of block b is at
// b*blockSize - blockSize.
type blockStore struct {
	blockSize int
	entries   []entry
}

func newBlockStore(blockSize, capacity int) *blockStore {
	s := &blockStore{
		blockSize: blockSize,
		entries:   make([]entry, capacity-blockSize),
	}
	for i := range s.entries {
		idx := i + blockSize
		s.entries[i] = entry{
			index:     idx,
			block:     idx / blockSize,
			value:     empty,
			runLength: empty,
		}
	}
	return s
}

// addr returns the position of entry offset of block in the store.
func (s *blockStore) addr(block, offset int) int {
	return block*s.blockSize - s.blockSize + offset
}

func (s *blockStore) valid(addr int) bool {
	return addr >= 0 && addr < len(s.entries)
}

func (s *blockStore) mustValid(addr int) {
	if !s.valid(addr) {
		panic(fmt.Sprintf("entry address out of range. addr: %d, len: %d", addr, len(s.entries)))
	}
}

func (s *blockStore) value(addr int) int {
	s.mustValid(addr)
	return s.entries[addr].value
}

func (s *blockStore) runLength(addr int) int {
	s.mustValid(addr)
	return s.entries[addr].runLength
}

func (s *blockStore) setValue(addr, v int) {
	s.mustValid(addr)
	s.entries[addr].value = v
}

func (s *blockStore) setRunLength(addr, l int) {
	s.mustValid(addr)
	s.entries[addr].runLength = l
}

func (s *blockStore) clear(addr int) {
	s.mustValid(addr)
	s.entries[addr].value = empty
	s.entries[addr].runLength = empty
}
