package disk_allocator

import "github.com/pkg/errors"

// contiguousIndexed is indexed allocation where every index slot holds an
// extent: the first block in value and the number of blocks in runLength.
type contiguousIndexed struct{}

type extent struct {
	start  int
	length int
}

func (contiguousIndexed) create(v *volumeImpl, payload []int) (placement, error) {
	bs := v.vcb.blockSize
	blocksNeeded := ceilDiv(len(payload), bs)
	if blocksNeeded+1 > v.freeBlocks() {
		return placement{}, errors.Wrapf(
			ErrCapacityExceeded,
			"need %d blocks, %d free", blocksNeeded+1, v.vcb.freeBlocks,
		)
	}

	indexBlock, ok := v.requestRun(1)
	if !ok {
		return placement{}, errors.Wrap(ErrCapacityExceeded, "no free block for index block")
	}
	v.markUsed(indexBlock, 1)

	extents, err := packExtents(v, blocksNeeded)
	if err != nil {
		for _, e := range extents {
			v.markFree(e.start, e.length)
		}
		v.markFree(indexBlock, 1)
		return placement{}, err
	}

	blocks := []int{indexBlock}
	next := 0
	for slot, e := range extents {
		for i := 0; i < e.length*bs && next < len(payload); i++ {
			v.writeEntry(e.start, i, payload[next])
			next++
		}
		v.writeEntry(indexBlock, slot, e.start)
		v.writeRunLength(indexBlock, slot, e.length)
		blocks = append(blocks, blockRange(e.start, e.length)...)
	}
	return placement{a: indexBlock, blocks: blocks}, nil
}

// packExtents reserves blocksNeeded blocks as at most blockSize extents. It
// always asks for the largest run still needed and shrinks the request by one
// block until a run is found. The extents reserved so far are returned with
// the error so the caller can release them.
func packExtents(v *volumeImpl, blocksNeeded int) ([]extent, error) {
	bs := v.vcb.blockSize
	var extents []extent
	remaining := blocksNeeded
	attempt := remaining
	for remaining > 0 {
		if len(extents) == bs {
			return extents, errors.Wrapf(
				ErrCapacityExceeded,
				"%d blocks still unplaced after filling all %d index slots", remaining, bs,
			)
		}
		start, ok := v.requestRun(attempt)
		if !ok {
			attempt--
			if attempt == 0 {
				return extents, errors.Wrapf(
					ErrFragmentation,
					"no free block left for %d remaining blocks", remaining,
				)
			}
			continue
		}
		v.markUsed(start, attempt)
		extents = append(extents, extent{start: start, length: attempt})
		remaining -= attempt
		attempt = remaining
	}
	return extents, nil
}

func (contiguousIndexed) extents(v *volumeImpl, in inode) []extent {
	var ret []extent
	for slot := 0; slot < v.vcb.blockSize; slot++ {
		start := v.readEntry(in.index, slot)
		if start == empty {
			continue
		}
		ret = append(ret, extent{start: start, length: v.readRunLength(in.index, slot)})
	}
	return ret
}

func (c contiguousIndexed) readAll(v *volumeImpl, in inode) ([]int, []int) {
	var values []int
	blocks := []int{in.index}
	for _, e := range c.extents(v, in) {
		for i := 0; i < e.length*v.vcb.blockSize; i++ {
			if val := v.readEntry(e.start, i); val != empty {
				values = append(values, val)
			}
		}
		blocks = append(blocks, blockRange(e.start, e.length)...)
	}
	return values, blocks
}

func (contiguousIndexed) translate(v *volumeImpl, in inode, k int) (int, int, error) {
	bs := v.vcb.blockSize
	jumps := (k - 1) / bs
	for slot := 0; slot < bs; slot++ {
		start := v.readEntry(in.index, slot)
		if start == empty {
			break
		}
		length := v.readRunLength(in.index, slot)
		if jumps < length {
			return start, jumps*bs + (k-1)%bs, nil
		}
		jumps -= length
	}
	return 0, 0, errors.Wrapf(ErrNotFound, "offset %d beyond allocated extents", k)
}

func (c contiguousIndexed) release(v *volumeImpl, in inode) []int {
	var blocks []int
	for _, e := range c.extents(v, in) {
		v.clearBlocks(e.start, e.length)
		v.markFree(e.start, e.length)
		blocks = append(blocks, blockRange(e.start, e.length)...)
	}
	v.clearBlocks(in.index, 1)
	v.markFree(in.index, 1)
	return append(blocks, in.index)
}
