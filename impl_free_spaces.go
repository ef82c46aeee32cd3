package disk_allocator

import "fmt"

// superblock is the block holding the VCB and the directory. It's never free.
const superblock = 0

// vcb is the volume control block. It tracks the free state of every block.
type vcb struct {
	blockSize   int
	totalBlocks int
	freeBlocks  int
	// bitmap[i] is true when block i is free.
	bitmap []bool
}

func newVCB(blockSize, totalBlocks int) *vcb {
	v := &vcb{
		blockSize:   blockSize,
		totalBlocks: totalBlocks,
		freeBlocks:  totalBlocks - 1,
		bitmap:      make([]bool, totalBlocks),
	}
	for i := superblock + 1; i < totalBlocks; i++ {
		v.bitmap[i] = true
	}
	return v
}

// requestRun finds the lowest block that starts n consecutive free blocks with
// a single first-fit pass. When a candidate fails at offset j, the scan resumes
// after the failing block.
func (v *vcb) requestRun(n int) (int, bool) {
	if n < 1 || n > v.freeBlocks {
		return 0, false
	}

	for i := 0; i+n <= v.totalBlocks; i++ {
		if !v.bitmap[i] {
			continue
		}
		j := 1
		for ; j < n; j++ {
			if !v.bitmap[i+j] {
				break
			}
		}
		if j == n {
			return i, true
		}
		// block i+j is used, the loop increment moves past it
		i += j
	}
	return 0, false
}

// markRange sets the state of length blocks starting at start. Blocks already
// in the requested state are left alone, so marking twice is a no-op. It
// returns the number of blocks that changed.
func (v *vcb) markRange(start, length int, free bool) int {
	if start <= superblock || length < 0 || start+length > v.totalBlocks {
		panic(fmt.Sprintf(
			"markRange out of range. start: %d, length: %d, totalBlocks: %d",
			start, length, v.totalBlocks,
		))
	}

	changed := 0
	for i := start; i < start+length; i++ {
		if v.bitmap[i] == free {
			continue
		}
		v.bitmap[i] = free
		changed++
	}
	if free {
		v.freeBlocks += changed
	} else {
		v.freeBlocks -= changed
	}
	return changed
}

func (v *vcb) isFree(block int) bool {
	return block > superblock && block < v.totalBlocks && v.bitmap[block]
}

func (v *vcb) bitmapString() string {
	return bitmapString(v.bitmap)
}
