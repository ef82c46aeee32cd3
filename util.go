package disk_allocator

import "strings"

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// blockRange returns the block numbers [start, start+length).
func blockRange(start, length int) []int {
	ret := make([]int, length)
	for i := range ret {
		ret[i] = start + i
	}
	return ret
}

func bitmapString(bitmap []bool) string {
	var sb strings.Builder
	sb.Grow(len(bitmap))
	for _, free := range bitmap {
		if free {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
