package disk_allocator

import "sync"

// volumeWithMutex serializes every operation, since free space and directory
// scans need a stable view of the volume for their whole duration.
type volumeWithMutex struct {
	v  *volumeImpl
	mu *sync.Mutex
}

func newVolumeWithMutexImpl(cfg Config) (*volumeWithMutex, error) {
	v, err := newVolumeImpl(cfg)
	if err != nil {
		return nil, err
	}
	return &volumeWithMutex{v: v, mu: &sync.Mutex{}}, nil
}

// NewVolume creates an empty volume. It returns ErrInvalidConfig when the
// block size doesn't fit the capacity.
func NewVolume(cfg Config) (Manager, error) {
	return newVolumeWithMutexImpl(cfg)
}

func (d *volumeWithMutex) Add(fileID int, payload []int) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.v.Add(fileID, payload)
}

func (d *volumeWithMutex) Read(id int) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.v.Read(id)
}

func (d *volumeWithMutex) Delete(fileID int) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.v.Delete(fileID)
}

func (d *volumeWithMutex) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.v.Snapshot()
}
