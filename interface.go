package disk_allocator

import "errors"

var (
	ErrDuplicateFile    = errors.New("file already exists")
	ErrCapacityExceeded = errors.New("file size exceeds available space")
	ErrFragmentation    = errors.New("no contiguous free blocks")
	ErrDirectoryFull    = errors.New("directory is full")
	ErrNotFound         = errors.New("file not found")
	ErrInvalidConfig    = errors.New("invalid volume configuration")
)

// Result describes the outcome of one file operation. It is returned together
// with the error, so Accesses is also meaningful for rejected operations.
type Result struct {
	// FileID is the base file identifier, without the read offset.
	FileID int
	// Offset is the 1-based element requested by a read, 0 for whole file.
	Offset int
	// Values are the payload values emitted by a read.
	Values []int
	// Blocks are the blocks written by an add, visited by a read or released
	// by a delete, in that order.
	Blocks []int
	// Accesses counts simulated reads and writes of VCB fields, directory
	// entries and block store entries during the operation.
	Accesses int
}

type Manager interface {
	// Add stores payload as a new file fileID.
	//
	// It returns ErrDuplicateFile, ErrDirectoryFull, ErrCapacityExceeded or
	// ErrFragmentation when the file can't be placed. A rejected Add leaves
	// the volume unchanged.
	Add(fileID int, payload []int) (Result, error)
	// Read returns the whole file when id is a file identifier, or a single
	// element when id is a file identifier plus an offset in [1, 99].
	//
	// If nothing can be resolved, it returns ErrNotFound.
	Read(id int) (Result, error)
	// Delete removes the file and releases its blocks.
	//
	// If the file does not exist, it returns ErrNotFound.
	Delete(fileID int) (Result, error)
	// Snapshot returns a copy of the whole volume for reporting.
	Snapshot() Snapshot
}
