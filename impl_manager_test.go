package disk_allocator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var allMethods = []Method{Contiguous, Linked, Indexed, ContiguousIndexed}

func newTestVolume(t *testing.T, method Method, blockSize, capacity int) *volumeImpl {
	v, err := newVolumeImpl(Config{Method: method, BlockSize: blockSize, Capacity: capacity})
	require.NoError(t, err)
	return v
}

func seq(from, to int) []int {
	ret := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		ret = append(ret, i)
	}
	return ret
}

// checkInvariants verifies the bitmap against the free count and the block
// store.
func checkInvariants(t *testing.T, v *volumeImpl) {
	free := 0
	for _, b := range v.vcb.bitmap {
		if b {
			free++
		}
	}
	require.Equal(t, free, v.vcb.freeBlocks)
	require.False(t, v.vcb.bitmap[superblock])
	for _, e := range v.store.entries {
		if e.value != empty {
			require.False(t, v.vcb.bitmap[e.block], "entry %d holds %d in free block %d", e.index, e.value, e.block)
		}
	}
	seen := map[int]bool{}
	for _, in := range v.dir.inodes {
		if in.fileID == empty {
			continue
		}
		require.False(t, seen[in.fileID], "duplicate file %d", in.fileID)
		seen[in.fileID] = true
	}
}

func TestNewVolumeConfig(t *testing.T) {
	cases := []struct {
		cfg    Config
		errMsg string
	}{
		{Config{Method: Contiguous, BlockSize: 4}, ""},
		{Config{Method: ContiguousIndexed, BlockSize: 64}, ""},
		{Config{Method: Linked, BlockSize: 2, Capacity: 16}, ""},
		{Config{Method: 0, BlockSize: 4}, "unknown allocation method 0"},
		{Config{Method: 5, BlockSize: 4}, "unknown allocation method 5"},
		{Config{Method: Indexed, BlockSize: 1}, "block size should be greater than 1 and at most 64, got: 1"},
		{Config{Method: Indexed, BlockSize: 128}, "block size should be greater than 1 and at most 64, got: 128"},
		{Config{Method: Indexed, BlockSize: 5}, "block size 5 leaves 3 unusable entries"},
		{Config{Method: Indexed, BlockSize: 2, Capacity: 2}, "capacity should be at least 4, got: 2"},
	}

	for _, c := range cases {
		m, err := NewVolume(c.cfg)
		if c.errMsg == "" {
			require.NoError(t, err)
			require.NotNil(t, m)
			continue
		}
		require.ErrorIs(t, err, ErrInvalidConfig)
		require.ErrorContains(t, err, c.errMsg)
	}
}

func TestNewVolumeLayout(t *testing.T) {
	v := newTestVolume(t, Contiguous, 4, 0)
	s := v.Snapshot()
	require.Equal(t, 128, s.Capacity)
	require.Equal(t, 32, s.TotalBlocks)
	require.Equal(t, 31, s.FreeBlocks)
	require.Equal(t, "0"+repeat('1', 31), s.BitmapString())
	require.Len(t, s.Directory, 3)
	require.Len(t, s.Entries, 124)
	for _, d := range s.Directory {
		require.False(t, d.Used())
	}
	for _, e := range s.Entries {
		require.False(t, e.Used())
		require.False(t, e.HasRunLength())
	}
}

func repeat(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}

func TestContiguousScenario(t *testing.T) {
	v := newTestVolume(t, Contiguous, 4, 16)

	res, err := v.Add(100, seq(1, 5))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, res.Blocks)
	require.Equal(t, 11, res.Accesses)
	require.Equal(t, 1, v.vcb.freeBlocks)
	require.Equal(t, "0001", v.vcb.bitmapString())
	require.Equal(t, inode{fileID: 100, start: 1, last: empty, length: 2, index: empty}, v.dir.get(0))
	checkInvariants(t, v)

	res, err = v.Read(100)
	require.NoError(t, err)
	require.Equal(t, seq(1, 5), res.Values)
	require.Equal(t, 9, res.Accesses)

	res, err = v.Read(103)
	require.NoError(t, err)
	require.Equal(t, []int{3}, res.Values)
	require.Equal(t, 100, res.FileID)
	require.Equal(t, 3, res.Offset)
	require.Equal(t, []int{1}, res.Blocks)
	require.Equal(t, 2, res.Accesses)

	res, err = v.Read(105)
	require.NoError(t, err)
	require.Equal(t, []int{5}, res.Values)
	require.Equal(t, []int{2}, res.Blocks)

	_, err = v.Read(106)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = v.Read(109)
	require.ErrorIs(t, err, ErrNotFound)

	res, err = v.Delete(100)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, res.Blocks)
	require.Equal(t, 11, res.Accesses)
	require.Equal(t, 3, v.vcb.freeBlocks)
	require.Equal(t, unusedInode, v.dir.get(0))
	checkInvariants(t, v)

	_, err = v.Read(100)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestContiguousBoundary(t *testing.T) {
	v := newTestVolume(t, Contiguous, 4, 16)
	_, err := v.Add(100, seq(1, 13))
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.Equal(t, 3, v.vcb.freeBlocks)

	_, err = v.Add(100, seq(1, 12))
	require.NoError(t, err)
	require.Equal(t, 0, v.vcb.freeBlocks)
	require.Equal(t, "0000", v.vcb.bitmapString())

	_, err = v.Add(200, []int{1})
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestContiguousFragmentation(t *testing.T) {
	v := newTestVolume(t, Contiguous, 4, 32)
	for _, id := range []int{100, 200, 300} {
		_, err := v.Add(id, seq(1, 4))
		require.NoError(t, err)
	}
	_, err := v.Add(400, []int{1})
	require.ErrorIs(t, err, ErrDirectoryFull)

	_, err = v.Delete(200)
	require.NoError(t, err)
	require.Equal(t, "00101111", v.vcb.bitmapString())

	before := v.Snapshot()
	_, err = v.Add(400, seq(1, 20))
	require.ErrorIs(t, err, ErrFragmentation)
	require.ErrorContains(t, err, "add file 400: no run of 5 free blocks")
	require.Equal(t, before, v.Snapshot())

	res, err := v.Add(400, seq(1, 16))
	require.NoError(t, err)
	require.Equal(t, []int{4, 5, 6, 7}, res.Blocks)
	checkInvariants(t, v)
}

func TestDuplicateFile(t *testing.T) {
	for _, m := range allMethods {
		v := newTestVolume(t, m, 4, 32)
		_, err := v.Add(100, seq(1, 3))
		require.NoError(t, err)
		before := v.Snapshot()
		res, err := v.Add(100, seq(1, 3))
		require.ErrorIs(t, err, ErrDuplicateFile, m.String())
		require.Equal(t, 1, res.Accesses)
		require.Equal(t, before, v.Snapshot())
	}
}

func TestInvalidArguments(t *testing.T) {
	v := newTestVolume(t, Linked, 4, 32)
	_, err := v.Add(150, []int{1})
	require.ErrorContains(t, err, "file id should be a multiple of 100 in [100, 9900], got: 150")
	_, err = v.Add(10000, []int{1})
	require.ErrorContains(t, err, "got: 10000")
	_, err = v.Add(0, []int{1})
	require.ErrorContains(t, err, "got: 0")
	_, err = v.Add(100, nil)
	require.ErrorContains(t, err, "payload of file 100 should not be empty")
	_, err = v.Add(100, []int{1, -1})
	require.ErrorContains(t, err, "payload of file 100 has reserved value -1 at 1")

	_, err = v.Read(50)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = v.Delete(101)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLinkedScenario(t *testing.T) {
	v := newTestVolume(t, Linked, 4, 16)

	res, err := v.Add(200, seq(1, 5))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, res.Blocks)
	require.Equal(t, inode{fileID: 200, start: 1, last: 2, length: empty, index: empty}, v.dir.get(0))
	// 3 payload slots and the pointer to block 2, then 2 payload slots
	require.Equal(t, []int{1, 2, 3, 2, 4, 5, empty, empty}, values(v, 1, 2))
	checkInvariants(t, v)

	res, err = v.Read(204)
	require.NoError(t, err)
	require.Equal(t, []int{4}, res.Values)
	require.Equal(t, []int{2}, res.Blocks)

	res, err = v.Read(203)
	require.NoError(t, err)
	require.Equal(t, []int{3}, res.Values)
	require.Equal(t, []int{1}, res.Blocks)

	_, err = v.Read(206)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = v.Read(207)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorContains(t, err, "offset 7 beyond last block 2")

	res, err = v.Read(200)
	require.NoError(t, err)
	require.Equal(t, seq(1, 5), res.Values)
	require.Equal(t, []int{1, 2}, res.Blocks)

	res, err = v.Delete(200)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, res.Blocks)
	require.Equal(t, 3, v.vcb.freeBlocks)
	require.Equal(t, []int{empty, empty, empty, empty, empty, empty, empty, empty}, values(v, 1, 2))
	checkInvariants(t, v)
}

func TestLinkedFullLastBlock(t *testing.T) {
	v := newTestVolume(t, Linked, 4, 16)
	_, err := v.Add(100, seq(1, 10))
	require.ErrorIs(t, err, ErrCapacityExceeded)

	res, err := v.Add(100, seq(1, 9))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, res.Blocks)
	require.Equal(t, 0, v.vcb.freeBlocks)

	res, err = v.Read(100)
	require.NoError(t, err)
	require.Equal(t, seq(1, 9), res.Values)

	res, err = v.Read(109)
	require.NoError(t, err)
	require.Equal(t, []int{9}, res.Values)
	require.Equal(t, []int{3}, res.Blocks)
	_, err = v.Read(110)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLinkedScattered(t *testing.T) {
	v := newTestVolume(t, Linked, 4, 32)
	for _, id := range []int{100, 200, 300} {
		_, err := v.Add(id, seq(id, id+2))
		require.NoError(t, err)
	}
	_, err := v.Delete(200)
	require.NoError(t, err)

	// chain reuses block 2 first, then continues after block 3
	res, err := v.Add(200, seq(1, 7))
	require.NoError(t, err)
	require.Equal(t, []int{2, 4, 5}, res.Blocks)

	res, err = v.Read(200)
	require.NoError(t, err)
	require.Equal(t, seq(1, 7), res.Values)
	require.Equal(t, []int{2, 4, 5}, res.Blocks)

	res, err = v.Read(207)
	require.NoError(t, err)
	require.Equal(t, []int{7}, res.Values)
	require.Equal(t, []int{5}, res.Blocks)

	res, err = v.Delete(200)
	require.NoError(t, err)
	require.Equal(t, []int{2, 4, 5}, res.Blocks)
	require.Equal(t, "00101111", v.vcb.bitmapString())
	checkInvariants(t, v)
}

func TestIndexedScenario(t *testing.T) {
	v := newTestVolume(t, Indexed, 4, 32)

	res, err := v.Add(300, seq(1, 10))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, res.Blocks)
	require.Equal(t, 3, v.vcb.freeBlocks)
	require.Equal(t, inode{fileID: 300, start: empty, last: empty, length: empty, index: 1}, v.dir.get(0))
	require.Equal(t, []int{2, 3, 4, empty}, values(v, 1, 1))
	checkInvariants(t, v)

	res, err = v.Read(300)
	require.NoError(t, err)
	require.Equal(t, seq(1, 10), res.Values)
	require.Equal(t, []int{1, 2, 3, 4}, res.Blocks)

	res, err = v.Read(310)
	require.NoError(t, err)
	require.Equal(t, []int{10}, res.Values)
	require.Equal(t, []int{4}, res.Blocks)

	_, err = v.Read(311)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = v.Read(313)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = v.Read(317)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorContains(t, err, "beyond index block capacity")

	res, err = v.Delete(300)
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 2, 3, 4}, res.Blocks)
	require.Equal(t, 7, v.vcb.freeBlocks)
	checkInvariants(t, v)
}

func TestIndexedMaximum(t *testing.T) {
	v := newTestVolume(t, Indexed, 4, 128)
	_, err := v.Add(100, seq(1, 17))
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.ErrorContains(t, err, "17 entries exceed the indexed maximum of 16")

	res, err := v.Add(100, seq(1, 16))
	require.NoError(t, err)
	require.Len(t, res.Blocks, 5)

	res, err = v.Read(116)
	require.NoError(t, err)
	require.Equal(t, []int{16}, res.Values)
}

func TestIndexedCapacity(t *testing.T) {
	v := newTestVolume(t, Indexed, 4, 16)
	_, err := v.Add(100, seq(1, 9))
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.Equal(t, 3, v.vcb.freeBlocks)

	_, err = v.Add(100, seq(1, 8))
	require.NoError(t, err)
	require.Equal(t, 0, v.vcb.freeBlocks)
}

func TestContiguousIndexedScenario(t *testing.T) {
	v := newTestVolume(t, ContiguousIndexed, 4, 32)

	res, err := v.Add(100, seq(1, 10))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, res.Blocks)
	a := v.store.addr(1, 0)
	require.Equal(t, 2, v.store.value(a))
	require.Equal(t, 3, v.store.runLength(a))
	require.Equal(t, empty, v.store.value(a+1))

	res, err = v.Read(100)
	require.NoError(t, err)
	require.Equal(t, seq(1, 10), res.Values)
	require.Equal(t, []int{1, 2, 3, 4}, res.Blocks)

	res, err = v.Read(109)
	require.NoError(t, err)
	require.Equal(t, []int{9}, res.Values)
	require.Equal(t, []int{4}, res.Blocks)
	_, err = v.Read(111)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = v.Read(113)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorContains(t, err, "offset 13 beyond allocated extents")

	res, err = v.Delete(100)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 4, 1}, res.Blocks)
	require.Equal(t, 7, v.vcb.freeBlocks)
	checkInvariants(t, v)
	for _, e := range v.store.entries {
		require.Equal(t, empty, e.value)
		require.Equal(t, empty, e.runLength)
	}
}

func TestContiguousIndexedExtents(t *testing.T) {
	v := newTestVolume(t, ContiguousIndexed, 4, 32)
	for _, id := range []int{100, 200, 300} {
		_, err := v.Add(id, seq(1, 4))
		require.NoError(t, err)
	}
	_, err := v.Delete(200)
	require.NoError(t, err)
	require.Equal(t, "00011001", v.vcb.bitmapString())

	// no run of 2 left, so two single-block extents are packed
	res, err := v.Add(400, seq(1, 8))
	require.NoError(t, err)
	require.Equal(t, []int{3, 4, 7}, res.Blocks)
	require.Equal(t, []int{4, 7, empty, empty}, values(v, 3, 3))
	idx := v.store.addr(3, 0)
	require.Equal(t, 1, v.store.runLength(idx))
	require.Equal(t, 1, v.store.runLength(idx+1))

	res, err = v.Read(400)
	require.NoError(t, err)
	require.Equal(t, seq(1, 8), res.Values)

	res, err = v.Read(405)
	require.NoError(t, err)
	require.Equal(t, []int{5}, res.Values)
	require.Equal(t, []int{7}, res.Blocks)
	checkInvariants(t, v)
}

func TestContiguousIndexedRollback(t *testing.T) {
	v := newTestVolume(t, ContiguousIndexed, 4, 64)
	// leave only the odd blocks free
	for b := 2; b < v.vcb.totalBlocks; b += 2 {
		v.vcb.markRange(b, 1, false)
	}
	require.Equal(t, "0101010101010101", v.vcb.bitmapString())
	require.Equal(t, 8, v.vcb.freeBlocks)

	before := v.Snapshot()
	// 5 data blocks need 5 single-block extents but the index block has 4 slots
	_, err := v.Add(100, seq(1, 20))
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.ErrorContains(t, err, "1 blocks still unplaced after filling all 4 index slots")
	require.Equal(t, before, v.Snapshot())
	checkInvariants(t, v)

	res, err := v.Add(100, seq(1, 16))
	require.NoError(t, err)
	require.Equal(t, []int{1, 3, 5, 7, 9}, res.Blocks)
	res, err = v.Read(100)
	require.NoError(t, err)
	require.Equal(t, seq(1, 16), res.Values)
	res, err = v.Read(116)
	require.NoError(t, err)
	require.Equal(t, []int{16}, res.Values)
	require.Equal(t, []int{9}, res.Blocks)
}

func TestDeleteTwice(t *testing.T) {
	for _, m := range allMethods {
		v := newTestVolume(t, m, 4, 32)
		_, err := v.Add(100, seq(1, 6))
		require.NoError(t, err)
		_, err = v.Delete(100)
		require.NoError(t, err)

		before := v.Snapshot()
		_, err = v.Delete(100)
		require.ErrorIs(t, err, ErrNotFound, m.String())
		require.Equal(t, before, v.Snapshot())
	}
}

// values returns the entry values of blocks [from, to].
func values(v *volumeImpl, from, to int) []int {
	var ret []int
	for b := from; b <= to; b++ {
		for off := 0; off < v.vcb.blockSize; off++ {
			ret = append(ret, v.store.value(v.store.addr(b, off)))
		}
	}
	return ret
}

func TestRandomOperations(t *testing.T) {
	seed := time.Now().UnixNano()
	t.Logf("seed: %d", seed)
	rnd := rand.New(rand.NewSource(seed))

	for _, m := range allMethods {
		for _, bs := range []int{2, 4, 8} {
			testRandomOperations(t, rnd, m, bs)
		}
	}
}

func testRandomOperations(t *testing.T, rnd *rand.Rand, method Method, blockSize int) {
	v := newTestVolume(t, method, blockSize, 128)
	files := map[int][]int{}

	for i := 0; i < 500; i++ {
		id := (rnd.Intn(5) + 1) * 100
		switch rnd.Intn(3) {
		case 0:
			payload := make([]int, rnd.Intn(3*blockSize*blockSize)+1)
			for j := range payload {
				payload[j] = rnd.Intn(1000) + 1
			}
			before := v.Snapshot()
			_, err := v.Add(id, payload)
			if err != nil {
				require.Equal(t, before, v.Snapshot(), "%s: failed add changed the volume: %v", method, err)
				if _, ok := files[id]; ok {
					require.ErrorIs(t, err, ErrDuplicateFile)
				}
				break
			}
			files[id] = payload
			res, err := v.Read(id)
			require.NoError(t, err)
			require.Equal(t, payload, res.Values, method.String())
		case 1:
			payload, ok := files[id]
			if !ok {
				_, err := v.Read(id)
				require.ErrorIs(t, err, ErrNotFound)
				break
			}
			k := rnd.Intn(min(len(payload), 99)) + 1
			res, err := v.Read(id + k)
			require.NoError(t, err)
			require.Equal(t, []int{payload[k-1]}, res.Values, "%s: read %d", method, id+k)
		case 2:
			before := v.Snapshot()
			_, err := v.Delete(id)
			if _, ok := files[id]; !ok {
				require.ErrorIs(t, err, ErrNotFound)
				require.Equal(t, before, v.Snapshot())
				break
			}
			require.NoError(t, err)
			delete(files, id)
		}
		checkInvariants(t, v)
	}
}
