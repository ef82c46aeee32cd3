package disk_allocator

import "slices"

// Snapshot is a copy of the whole volume. Unused directory fields, values and
// run lengths are -1.
type Snapshot struct {
	Method      Method           `yaml:"method"`
	Capacity    int              `yaml:"capacity"`
	BlockSize   int              `yaml:"block_size"`
	TotalBlocks int              `yaml:"total_blocks"`
	FreeBlocks  int              `yaml:"free_blocks"`
	Bitmap      []bool           `yaml:"-"`
	Directory   []DirectoryEntry `yaml:"directory"`
	Entries     []Entry          `yaml:"entries"`
}

type DirectoryEntry struct {
	FileID     int `yaml:"file_id"`
	StartBlock int `yaml:"start_block"`
	LastBlock  int `yaml:"last_block"`
	Length     int `yaml:"length"`
	IndexBlock int `yaml:"index_block"`
}

// Used reports whether the directory slot holds a file.
func (d DirectoryEntry) Used() bool {
	return d.FileID != empty
}

type Entry struct {
	Index     int `yaml:"index"`
	Block     int `yaml:"block"`
	Value     int `yaml:"value"`
	RunLength int `yaml:"run_length"`
}

// Used reports whether the entry holds a value.
func (e Entry) Used() bool {
	return e.Value != empty
}

// HasRunLength reports whether the entry is an extent slot of an index block.
func (e Entry) HasRunLength() bool {
	return e.RunLength != empty
}

// BitmapString renders the bitmap with '1' for a free block and '0' for a
// used one.
func (s Snapshot) BitmapString() string {
	return bitmapString(s.Bitmap)
}

// Snapshot implements Manager.Snapshot.
func (v *volumeImpl) Snapshot() Snapshot {
	s := Snapshot{
		Method:      v.method,
		Capacity:    v.capacity,
		BlockSize:   v.vcb.blockSize,
		TotalBlocks: v.vcb.totalBlocks,
		FreeBlocks:  v.vcb.freeBlocks,
		Bitmap:      slices.Clone(v.vcb.bitmap),
		Directory:   make([]DirectoryEntry, len(v.dir.inodes)),
		Entries:     make([]Entry, len(v.store.entries)),
	}
	for i, in := range v.dir.inodes {
		s.Directory[i] = DirectoryEntry{
			FileID:     in.fileID,
			StartBlock: in.start,
			LastBlock:  in.last,
			Length:     in.length,
			IndexBlock: in.index,
		}
	}
	for i, e := range v.store.entries {
		s.Entries[i] = Entry{Index: e.index, Block: e.block, Value: e.value, RunLength: e.runLength}
	}
	return s
}
