package disk_allocator

import "github.com/pkg/errors"

// indexed stores a file in single data blocks listed by one index block.
type indexed struct{}

func (indexed) create(v *volumeImpl, payload []int) (placement, error) {
	bs := v.vcb.blockSize
	if len(payload) > bs*bs {
		return placement{}, errors.Wrapf(
			ErrCapacityExceeded,
			"%d entries exceed the indexed maximum of %d", len(payload), bs*bs,
		)
	}
	dataBlocks := ceilDiv(len(payload), bs)
	if dataBlocks+1 > v.freeBlocks() {
		return placement{}, errors.Wrapf(
			ErrCapacityExceeded,
			"need %d blocks, %d free", dataBlocks+1, v.vcb.freeBlocks,
		)
	}

	var reserved []int
	rollback := func() {
		for _, b := range reserved {
			v.clearBlocks(b, 1)
			v.markFree(b, 1)
		}
	}
	allocOne := func() (int, bool) {
		b, ok := v.requestRun(1)
		if !ok {
			return 0, false
		}
		v.markUsed(b, 1)
		reserved = append(reserved, b)
		return b, true
	}

	indexBlock, ok := allocOne()
	if !ok {
		return placement{}, errors.Wrap(ErrCapacityExceeded, "no free block for index block")
	}
	for chunk := 0; chunk < dataBlocks; chunk++ {
		b, ok := allocOne()
		if !ok {
			rollback()
			return placement{}, errors.Wrapf(ErrCapacityExceeded, "no free block for chunk %d", chunk)
		}
		v.writeEntry(indexBlock, chunk, b)
		end := min((chunk+1)*bs, len(payload))
		for i, val := range payload[chunk*bs : end] {
			v.writeEntry(b, i, val)
		}
	}
	return placement{a: indexBlock, blocks: reserved}, nil
}

func (indexed) readAll(v *volumeImpl, in inode) ([]int, []int) {
	bs := v.vcb.blockSize
	var values []int
	blocks := []int{in.index}
	for slot := 0; slot < bs; slot++ {
		b := v.readEntry(in.index, slot)
		if b == empty {
			continue
		}
		blocks = append(blocks, b)
		for off := 0; off < bs; off++ {
			if val := v.readEntry(b, off); val != empty {
				values = append(values, val)
			}
		}
	}
	return values, blocks
}

func (indexed) translate(v *volumeImpl, in inode, k int) (int, int, error) {
	bs := v.vcb.blockSize
	jumps := (k - 1) / bs
	if jumps >= bs {
		return 0, 0, errors.Wrapf(ErrNotFound, "offset %d beyond index block capacity", k)
	}
	b := v.readEntry(in.index, jumps)
	if b == empty {
		return 0, 0, errors.Wrapf(ErrNotFound, "offset %d beyond allocated blocks", k)
	}
	return b, (k - 1) % bs, nil
}

func (indexed) release(v *volumeImpl, in inode) []int {
	bs := v.vcb.blockSize
	var blocks []int
	for slot := 0; slot < bs; slot++ {
		b := v.readEntry(in.index, slot)
		if b == empty {
			continue
		}
		v.clearBlocks(b, 1)
		v.markFree(b, 1)
		blocks = append(blocks, b)
	}
	v.clearBlocks(in.index, 1)
	v.markFree(in.index, 1)
	return append(blocks, in.index)
}
