package disk_allocator

import "fmt"

// placement is what a strategy records in the directory for a new file. a and
// b are interpreted by directory.update.
type placement struct {
	a, b   int
	blocks []int
}

// strategy is the on-disk layout of one allocation method. Strategies only
// touch the volume through the volumeImpl helpers, which count accesses.
type strategy interface {
	// create allocates blocks and writes payload. On error, every bitmap and
	// block store change it made must be reverted.
	create(v *volumeImpl, payload []int) (placement, error)
	// readAll returns the values of the file in order and the blocks visited.
	readAll(v *volumeImpl, in inode) (values, blocks []int)
	// translate maps the 1-based offset k of the file to an entry.
	translate(v *volumeImpl, in inode, k int) (block, offset int, err error)
	// release clears and frees all blocks of the file and returns them.
	release(v *volumeImpl, in inode) []int
}

func newStrategy(m Method) strategy {
	switch m {
	case Contiguous:
		return contiguous{}
	case Linked:
		return linked{}
	case Indexed:
		return indexed{}
	case ContiguousIndexed:
		return contiguousIndexed{}
	default:
		panic(fmt.Sprintf("unknown allocation method: %d", int(m)))
	}
}
