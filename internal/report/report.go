// Package report renders volume snapshots and command outcomes for people.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	diskalloc "github.com/lance6716/disk-allocator"
	"github.com/lance6716/disk-allocator/internal/runner"
	"github.com/lance6716/disk-allocator/internal/script"
)

const (
	columnWidth  = 10
	blockDivider = "======================================="
	entryDivider = "---------------------------------------"
)

// WriteProperties prints the configuration of the volume.
func WriteProperties(w io.Writer, s diskalloc.Snapshot) error {
	_, err := fmt.Fprintf(w,
		"Disk Properties\n"+
			"\t> Total entries available: %d\n"+
			"\t> Block Size: %d\n"+
			"\t> Total number of blocks: %d\n"+
			"\t> Number of free blocks: %d\n"+
			"\t> Allocation Method: %d => %s allocation\n\n",
		s.Capacity, s.BlockSize, s.TotalBlocks, s.FreeBlocks, int(s.Method), s.Method,
	)
	return err
}

// WriteDiskMap prints every entry of the volume grouped by block, followed by
// the free space bitmap summary. Entry 0 shows the VCB, the rest of block 0
// shows the directory.
func WriteDiskMap(w io.Writer, s diskalloc.Snapshot) error {
	var sb strings.Builder
	row := func(block, index int, data string) {
		fmt.Fprintf(&sb, "%*d%*d  %s\n", columnWidth, block, columnWidth, index, data)
	}

	fmt.Fprintf(&sb, "%*s%*s  %s\n", columnWidth, "Block", columnWidth, "Index", "Data")
	for i := 0; i < s.Capacity; i++ {
		if i%s.BlockSize == 0 {
			sb.WriteString(blockDivider + "\n")
		} else {
			sb.WriteString(entryDivider + "\n")
		}

		switch {
		case i == 0:
			row(0, 0, fmt.Sprintf("%d,%d,%d,[%s]", s.TotalBlocks, s.FreeBlocks, s.BlockSize, s.BitmapString()))
		case i < s.BlockSize:
			row(0, i, directoryEntry(s.Method, s.Directory[i-1]))
		default:
			e := s.Entries[i-s.BlockSize]
			row(e.Block, e.Index, dataEntry(e))
		}
	}
	sb.WriteString(blockDivider + "\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	return WriteBitmap(w, s)
}

// WriteBitmap prints the free space bitmap, '1' is a free block.
func WriteBitmap(w io.Writer, s diskalloc.Snapshot) error {
	_, err := fmt.Fprintf(w, "\nFree space bit map (%d/%d)\n[%s]\n\n", s.FreeBlocks, s.TotalBlocks, s.BitmapString())
	return err
}

func directoryEntry(m diskalloc.Method, d diskalloc.DirectoryEntry) string {
	if !d.Used() {
		return "-"
	}
	switch m {
	case diskalloc.Contiguous:
		return joinInts(d.FileID, d.StartBlock, d.Length)
	case diskalloc.Linked:
		return joinInts(d.FileID, d.StartBlock, d.LastBlock)
	default:
		return joinInts(d.FileID, d.IndexBlock)
	}
}

func dataEntry(e diskalloc.Entry) string {
	switch {
	case !e.Used():
		return "-"
	case e.HasRunLength():
		return joinInts(e.Value, e.RunLength)
	default:
		return strconv.Itoa(e.Value)
	}
}

func joinInts(vals ...int) string {
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = strconv.Itoa(v)
	}
	return strings.Join(strs, ",")
}

// WriteOutcome prints one line describing what a command did.
func WriteOutcome(w io.Writer, o runner.Outcome) error {
	cmd := o.Command
	var msg string
	switch {
	case o.Err != nil:
		msg = fmt.Sprintf("Error: %s of file %d failed: %v", verb(cmd.Op), cmd.FileID, o.Err)
	case cmd.Op == script.OpAdd:
		msg = fmt.Sprintf("Added file %d at %s", cmd.FileID, blocks(o.Result.Blocks))
	case cmd.Op == script.OpRead && o.Result.Offset > 0:
		msg = fmt.Sprintf("Read file %d(%d) entry %d: %d in B%d",
			o.Result.FileID, cmd.FileID, o.Result.Offset, o.Result.Values[0], o.Result.Blocks[0])
	case cmd.Op == script.OpRead:
		msg = fmt.Sprintf("Read file %d from %s: %s",
			cmd.FileID, blocks(o.Result.Blocks), joinInts(o.Result.Values...))
	case cmd.Op == script.OpDelete:
		msg = fmt.Sprintf("Deleted file %d and freed %s", cmd.FileID, blocks(o.Result.Blocks))
	}
	_, err := fmt.Fprintf(w, "%s (%d accesses)\n", msg, o.Result.Accesses)
	return err
}

func verb(op script.Op) string {
	switch op {
	case script.OpAdd:
		return "Adding"
	case script.OpRead:
		return "Reading"
	case script.OpDelete:
		return "Deletion"
	default:
		return "Command"
	}
}

func blocks(bs []int) string {
	strs := make([]string, len(bs))
	for i, b := range bs {
		strs[i] = "B" + strconv.Itoa(b)
	}
	return strings.Join(strs, " ")
}

type yamlOutcome struct {
	Line     int    `yaml:"line"`
	Op       string `yaml:"op"`
	FileID   int    `yaml:"file_id"`
	Values   []int  `yaml:"values,omitempty,flow"`
	Blocks   []int  `yaml:"blocks,omitempty,flow"`
	Accesses int    `yaml:"accesses"`
	Error    string `yaml:"error,omitempty"`
}

type yamlReport struct {
	Outcomes []yamlOutcome      `yaml:"outcomes,omitempty"`
	Bitmap   string             `yaml:"bitmap"`
	Volume   diskalloc.Snapshot `yaml:"volume"`
}

// WriteYAML prints the outcomes and the snapshot as a YAML document.
func WriteYAML(w io.Writer, s diskalloc.Snapshot, outcomes []runner.Outcome) error {
	r := yamlReport{Bitmap: s.BitmapString(), Volume: s}
	for _, o := range outcomes {
		yo := yamlOutcome{
			Line:     o.Command.Line,
			Op:       o.Command.Op.String(),
			FileID:   o.Command.FileID,
			Values:   o.Result.Values,
			Blocks:   o.Result.Blocks,
			Accesses: o.Result.Accesses,
		}
		if o.Err != nil {
			yo.Error = o.Err.Error()
		}
		r.Outcomes = append(r.Outcomes, yo)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
