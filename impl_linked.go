package disk_allocator

import "github.com/pkg/errors"

// linked stores a file in a chain of blocks. The last entry of every block but
// the last one holds the number of the next block.
type linked struct{}

func (linked) create(v *volumeImpl, payload []int) (placement, error) {
	slots := v.vcb.blockSize - 1
	blocksNeeded := ceilDiv(len(payload), slots)
	if blocksNeeded > v.freeBlocks() {
		return placement{}, errors.Wrapf(
			ErrCapacityExceeded,
			"need %d blocks, %d free", blocksNeeded, v.vcb.freeBlocks,
		)
	}

	var chain []int
	rollback := func() {
		for _, b := range chain {
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
		chain = append(chain, b)
		return b, true
	}

	cur, ok := allocOne()
	if !ok {
		return placement{}, errors.Wrap(ErrCapacityExceeded, "no free block for chain head")
	}
	for i, val := range payload {
		off := i % slots
		if off == 0 && i > 0 {
			next, ok := allocOne()
			if !ok {
				rollback()
				return placement{}, errors.Wrapf(ErrCapacityExceeded, "no free block after %d", cur)
			}
			v.writeEntry(cur, slots, next)
			cur = next
		}
		v.writeEntry(cur, off, val)
	}
	return placement{a: chain[0], b: cur, blocks: chain}, nil
}

func (linked) readAll(v *volumeImpl, in inode) ([]int, []int) {
	slots := v.vcb.blockSize - 1
	var values []int
	cur := in.start
	blocks := []int{cur}
	for off := 0; ; {
		if off == slots {
			if cur == in.last {
				break
			}
			cur = v.readEntry(cur, slots)
			blocks = append(blocks, cur)
			off = 0
			continue
		}
		val := v.readEntry(cur, off)
		if val == empty {
			break
		}
		values = append(values, val)
		off++
	}
	return values, blocks
}

func (linked) translate(v *volumeImpl, in inode, k int) (int, int, error) {
	slots := v.vcb.blockSize - 1
	jumps := (k - 1) / slots
	cur := in.start
	for i := 0; i < jumps; i++ {
		if cur == in.last {
			return 0, 0, errors.Wrapf(ErrNotFound, "offset %d beyond last block %d", k, in.last)
		}
		cur = v.readEntry(cur, slots)
	}
	return cur, (k - 1) % slots, nil
}

func (linked) release(v *volumeImpl, in inode) []int {
	slots := v.vcb.blockSize - 1
	var blocks []int
	cur := in.start
	for {
		blocks = append(blocks, cur)
		next := empty
		if cur != in.last {
			// follow the pointer before it's cleared
			next = v.readEntry(cur, slots)
		}
		v.clearBlocks(cur, 1)
		v.markFree(cur, 1)
		if next == empty {
			break
		}
		cur = next
	}
	return blocks
}
