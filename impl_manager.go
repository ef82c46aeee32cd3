package disk_allocator

import (
	"github.com/pkg/errors"
)

const (
	fileIDStep = 100
	minFileID  = 100
	maxFileID  = 9900
)

type volumeImpl struct {
	method   Method
	capacity int

	vcb      *vcb
	dir      *directory
	store    *blockStore
	strategy strategy

	// accesses of the running operation
	accesses int
}

func newVolumeImpl(cfg Config) (*volumeImpl, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &volumeImpl{
		method:   cfg.Method,
		capacity: cfg.Capacity,
		vcb:      newVCB(cfg.BlockSize, cfg.Capacity/cfg.BlockSize),
		// the superblock holds the VCB and blockSize-1 inodes
		dir:      newDirectory(cfg.Method, cfg.BlockSize-1),
		store:    newBlockStore(cfg.BlockSize, cfg.Capacity),
		strategy: newStrategy(cfg.Method),
	}, nil
}

// ValidFileID reports whether id is a file identifier: a multiple of 100 in
// [100, 9900].
func ValidFileID(id int) bool {
	return id >= minFileID && id <= maxFileID && id%fileIDStep == 0
}

// SplitFileID splits a read target into the file identifier and the 1-based
// offset, which is 0 for the whole file.
func SplitFileID(id int) (fileID, offset int) {
	return id - id%fileIDStep, id % fileIDStep
}

// Add implements Manager.Add.
func (v *volumeImpl) Add(fileID int, payload []int) (Result, error) {
	v.accesses = 0
	res := Result{FileID: fileID}
	if !ValidFileID(fileID) {
		return res, errors.Errorf("file id should be a multiple of 100 in [100, 9900], got: %d", fileID)
	}
	if len(payload) == 0 {
		return res, errors.Errorf("payload of file %d should not be empty", fileID)
	}
	for i, val := range payload {
		if val == empty {
			return res, errors.Errorf("payload of file %d has reserved value %d at %d", fileID, empty, i)
		}
	}

	if _, ok := v.findInode(fileID); ok {
		res.Accesses = v.accesses
		return res, errors.Wrapf(ErrDuplicateFile, "file %d", fileID)
	}
	slot, ok := v.findFreeInode()
	if !ok {
		res.Accesses = v.accesses
		return res, errors.Wrapf(ErrDirectoryFull, "file %d", fileID)
	}

	p, err := v.strategy.create(v, payload)
	if err != nil {
		res.Accesses = v.accesses
		return res, errors.WithMessagef(err, "add file %d", fileID)
	}
	v.dir.update(slot, fileID, p.a, p.b)
	v.accesses++

	res.Blocks = p.blocks
	res.Accesses = v.accesses
	return res, nil
}

// Read implements Manager.Read.
func (v *volumeImpl) Read(id int) (Result, error) {
	v.accesses = 0
	fileID, offset := SplitFileID(id)
	res := Result{FileID: fileID, Offset: offset}
	if !ValidFileID(fileID) {
		return res, errors.Wrapf(ErrNotFound, "invalid file id %d", id)
	}

	slot, ok := v.findInode(fileID)
	if !ok {
		res.Accesses = v.accesses
		return res, errors.Wrapf(ErrNotFound, "file %d", fileID)
	}
	in := v.dir.get(slot)

	if offset == 0 {
		res.Values, res.Blocks = v.strategy.readAll(v, in)
		res.Accesses = v.accesses
		return res, nil
	}

	block, off, err := v.strategy.translate(v, in, offset)
	if err != nil {
		res.Accesses = v.accesses
		return res, errors.WithMessagef(err, "read file %d", fileID)
	}
	addr := v.store.addr(block, off)
	if !v.store.valid(addr) {
		res.Accesses = v.accesses
		return res, errors.Wrapf(ErrNotFound, "file %d offset %d", fileID, offset)
	}
	val := v.readEntry(block, off)
	res.Accesses = v.accesses
	if val == empty {
		return res, errors.Wrapf(ErrNotFound, "file %d offset %d is empty", fileID, offset)
	}
	res.Values = []int{val}
	res.Blocks = []int{v.store.entries[addr].block}
	return res, nil
}

// Delete implements Manager.Delete.
func (v *volumeImpl) Delete(fileID int) (Result, error) {
	v.accesses = 0
	res := Result{FileID: fileID}
	if !ValidFileID(fileID) {
		return res, errors.Wrapf(ErrNotFound, "invalid file id %d", fileID)
	}

	slot, ok := v.findInode(fileID)
	if !ok {
		res.Accesses = v.accesses
		return res, errors.Wrapf(ErrNotFound, "file %d", fileID)
	}
	res.Blocks = v.strategy.release(v, v.dir.get(slot))
	v.dir.reset(slot)
	v.accesses++
	res.Accesses = v.accesses
	return res, nil
}

func (v *volumeImpl) findInode(fileID int) (int, bool) {
	v.accesses++
	return v.dir.find(fileID)
}

func (v *volumeImpl) findFreeInode() (int, bool) {
	v.accesses++
	return v.dir.findFree()
}

func (v *volumeImpl) freeBlocks() int {
	v.accesses++
	return v.vcb.freeBlocks
}

func (v *volumeImpl) requestRun(n int) (int, bool) {
	v.accesses++
	return v.vcb.requestRun(n)
}

func (v *volumeImpl) markUsed(start, length int) {
	v.accesses++
	v.vcb.markRange(start, length, false)
}

func (v *volumeImpl) markFree(start, length int) {
	v.accesses++
	v.vcb.markRange(start, length, true)
}

func (v *volumeImpl) readEntry(block, offset int) int {
	v.accesses++
	return v.store.value(v.store.addr(block, offset))
}

func (v *volumeImpl) readRunLength(block, offset int) int {
	v.accesses++
	return v.store.runLength(v.store.addr(block, offset))
}

func (v *volumeImpl) writeEntry(block, offset, val int) {
	v.accesses++
	v.store.setValue(v.store.addr(block, offset), val)
}

func (v *volumeImpl) writeRunLength(block, offset, l int) {
	v.accesses++
	v.store.setRunLength(v.store.addr(block, offset), l)
}

// clearBlocks empties every entry of length blocks starting at start.
func (v *volumeImpl) clearBlocks(start, length int) {
	first := v.store.addr(start, 0)
	for i := 0; i < length*v.vcb.blockSize; i++ {
		v.accesses++
		v.store.clear(first + i)
	}
}
