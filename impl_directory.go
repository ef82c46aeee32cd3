package disk_allocator

// inode locates the data of one file. Which fields are meaningful depends on
// the allocation method:
//
//   - contiguous: start, length
//   - linked: start, last
//   - indexed and contiguous-indexed: index
type inode struct {
	fileID int
	start  int
	last   int
	length int
	index  int
}

var unusedInode = inode{fileID: empty, start: empty, last: empty, length: empty, index: empty}

// directory is the fixed capacity inode table stored in the superblock after
// the VCB.
type directory struct {
	method Method
	inodes []inode
}

func newDirectory(method Method, capacity int) *directory {
	d := &directory{method: method, inodes: make([]inode, capacity)}
	for i := range d.inodes {
		d.inodes[i] = unusedInode
	}
	return d
}

// find returns the slot of the live inode of fileID.
func (d *directory) find(fileID int) (int, bool) {
	if fileID == empty {
		return 0, false
	}
	for i, in := range d.inodes {
		if in.fileID == fileID {
			return i, true
		}
	}
	return 0, false
}

// findFree returns the first unused slot. It reports false when the directory
// is full.
func (d *directory) findFree() (int, bool) {
	for i, in := range d.inodes {
		if in.fileID == empty {
			return i, true
		}
	}
	return 0, false
}

func (d *directory) get(slot int) inode {
	return d.inodes[slot]
}

// update overwrites the fields of slot used by the allocation method with a
// and b. Setting fileID to empty frees the slot.
func (d *directory) update(slot, fileID, a, b int) {
	in := unusedInode
	in.fileID = fileID
	if fileID != empty {
		switch d.method {
		case Contiguous:
			in.start, in.length = a, b
		case Linked:
			in.start, in.last = a, b
		case Indexed, ContiguousIndexed:
			in.index = a
		}
	}
	d.inodes[slot] = in
}

func (d *directory) reset(slot int) {
	d.update(slot, empty, empty, empty)
}
