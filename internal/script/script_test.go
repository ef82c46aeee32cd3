package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		want Command
		ok   bool
		err  error
	}{
		{"add,100,1,2,3", Command{Op: OpAdd, FileID: 100, Payload: []int{1, 2, 3}}, true, nil},
		{" ADD , 200 , 5 ,, -7\r", Command{Op: OpAdd, FileID: 200, Payload: []int{5, -7}}, true, nil},
		{"read,203", Command{Op: OpRead, FileID: 203}, true, nil},
		{"Read,9999", Command{Op: OpRead, FileID: 9999}, true, nil},
		{"delete,300", Command{Op: OpDelete, FileID: 300}, true, nil},
		{"", Command{}, false, nil},
		{"   \r", Command{}, false, nil},
		{"# comment", Command{}, false, nil},
		{"add,150,1", Command{}, false, ErrInvalidFileID},
		{"add,abc,1", Command{}, false, ErrInvalidFileID},
		{"add,100", Command{}, false, ErrInvalidData},
		{"add,100,1,x", Command{}, false, ErrInvalidData},
		{"add,100,1,0", Command{}, false, ErrInvalidData},
		{"add,100,-1", Command{}, false, ErrInvalidData},
		{"read,50", Command{}, false, ErrInvalidFileID},
		{"read,10000", Command{}, false, ErrInvalidFileID},
		{"delete,101", Command{}, false, ErrInvalidFileID},
		{"move,100", Command{}, false, ErrUnknownCommand},
	}

	for _, c := range cases {
		got, ok, err := ParseLine(c.line)
		if c.err != nil {
			require.ErrorIs(t, err, c.err, c.line)
			require.False(t, ok)
			continue
		}
		require.NoError(t, err, c.line)
		require.Equal(t, c.ok, ok, c.line)
		require.Equal(t, c.want, got, c.line)
	}

	_, _, err := ParseLine("add")
	require.ErrorContains(t, err, `expected a command and a file id, got "add"`)
	_, _, err = ParseLine("read,100,1")
	require.ErrorContains(t, err, "unexpected arguments for read")
}

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"add,100,1,2,3,4,5",
		"read,103",
		"",
		"add,150,1",
		"delete,100",
		"bogus,100",
	}, "\r\n")

	cmds, invalid, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Command{
		{Line: 1, Op: OpAdd, FileID: 100, Payload: []int{1, 2, 3, 4, 5}},
		{Line: 2, Op: OpRead, FileID: 103},
		{Line: 5, Op: OpDelete, FileID: 100},
	}, cmds)

	require.Len(t, invalid, 2)
	require.Equal(t, 4, invalid[0].Line)
	require.Equal(t, "add,150,1", invalid[0].Text)
	require.ErrorIs(t, invalid[0], ErrInvalidFileID)
	require.Equal(t, `line 4: 150: invalid file id`, invalid[0].Error())
	require.Equal(t, 6, invalid[1].Line)
	require.ErrorIs(t, invalid[1], ErrUnknownCommand)
}
