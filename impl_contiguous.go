package disk_allocator

import "github.com/pkg/errors"

// contiguous stores a file in one run of consecutive blocks.
type contiguous struct{}

func (contiguous) create(v *volumeImpl, payload []int) (placement, error) {
	bs := v.vcb.blockSize
	blocksNeeded := ceilDiv(len(payload), bs)
	if blocksNeeded > v.freeBlocks() {
		return placement{}, errors.Wrapf(
			ErrCapacityExceeded,
			"need %d blocks, %d free", blocksNeeded, v.vcb.freeBlocks,
		)
	}
	start, ok := v.requestRun(blocksNeeded)
	if !ok {
		return placement{}, errors.Wrapf(
			ErrFragmentation,
			"no run of %d free blocks", blocksNeeded,
		)
	}

	for i, val := range payload {
		v.writeEntry(start, i, val)
	}
	v.markUsed(start, blocksNeeded)
	return placement{a: start, b: blocksNeeded, blocks: blockRange(start, blocksNeeded)}, nil
}

func (contiguous) readAll(v *volumeImpl, in inode) ([]int, []int) {
	var values []int
	for i := 0; i < in.length*v.vcb.blockSize; i++ {
		if val := v.readEntry(in.start, i); val != empty {
			values = append(values, val)
		}
	}
	return values, blockRange(in.start, in.length)
}

func (contiguous) translate(v *volumeImpl, in inode, k int) (int, int, error) {
	bs := v.vcb.blockSize
	if k > in.length*bs {
		return 0, 0, errors.Wrapf(ErrNotFound, "offset %d beyond %d allocated entries", k, in.length*bs)
	}
	// the whole run is addressed from its first block
	return in.start, k - 1, nil
}

func (contiguous) release(v *volumeImpl, in inode) []int {
	v.clearBlocks(in.start, in.length)
	v.markFree(in.start, in.length)
	return blockRange(in.start, in.length)
}
