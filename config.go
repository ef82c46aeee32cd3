package disk_allocator

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DefaultCapacity is the number of entries of a volume when Config.Capacity
// is not set.
const DefaultCapacity = 128

// Method is the allocation method of a volume. It's chosen once when the
// volume is created.
type Method int

const (
	Contiguous Method = iota + 1
	Linked
	Indexed
	ContiguousIndexed
)

func (m Method) String() string {
	switch m {
	case Contiguous:
		return "contiguous"
	case Linked:
		return "linked"
	case Indexed:
		return "indexed"
	case ContiguousIndexed:
		return "contiguous-indexed"
	default:
		return "unknown(" + strconv.Itoa(int(m)) + ")"
	}
}

func (m Method) valid() bool {
	return m >= Contiguous && m <= ContiguousIndexed
}

// ParseMethod accepts a method name, case-insensitive, or its number 1..4.
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "1", "contiguous":
		return Contiguous, nil
	case "2", "linked":
		return Linked, nil
	case "3", "indexed":
		return Indexed, nil
	case "4", "contiguous-indexed", "contiguous_indexed", "contiguousindexed":
		return ContiguousIndexed, nil
	}
	return 0, errors.Wrapf(ErrInvalidConfig, "unknown allocation method %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

type Config struct {
	Method Method
	// BlockSize is the number of entries per block.
	BlockSize int
	// Capacity is the total number of entries, including the superblock.
	// Zero means DefaultCapacity.
	Capacity int
}

func (c Config) withDefaults() Config {
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	return c
}

func (c Config) validate() error {
	if !c.Method.valid() {
		return errors.Wrapf(ErrInvalidConfig, "unknown allocation method %d", int(c.Method))
	}
	if c.Capacity < 4 {
		return errors.Wrapf(ErrInvalidConfig, "capacity should be at least 4, got: %d", c.Capacity)
	}
	if c.BlockSize <= 1 || c.BlockSize > c.Capacity/2 {
		return errors.Wrapf(
			ErrInvalidConfig,
			"block size should be greater than 1 and at most %d, got: %d",
			c.Capacity/2, c.BlockSize,
		)
	}
	if r := c.Capacity % c.BlockSize; r != 0 {
		return errors.Wrapf(
			ErrInvalidConfig,
			"block size %d leaves %d unusable entries",
			c.BlockSize, r,
		)
	}
	return nil
}
