package resp

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuroko-shirai/embedis/v1/errs"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestAppendCommand(t *testing.T) {
	got := AppendCommand(nil, "ZADD", "zs", "1.5", "m1")
	assert.Equal(t, "*4\r\n$4\r\nZADD\r\n$2\r\nzs\r\n$3\r\n1.5\r\n$2\r\nm1\r\n", string(got))

	got = AppendCommand(nil, "PING")
	assert.Equal(t, "*1\r\n$4\r\nPING\r\n", string(got))

	got = AppendCommand(nil, "SET", "k", "")
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$0\r\n\r\n", string(got))
}

func TestWriteCommand(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, WriteCommand(w, "GET", "key"))
	assert.Equal(t, "*2\r\n$3\r\nGET\r\n$3\r\nkey\r\n", buf.String())
}

func TestReadReply(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Reply
	}{
		{"status", "+PONG\r\n", Status("PONG")},
		{"error", "-ERR wrong type\r\n", Error("ERR wrong type")},
		{"integer", ":42\r\n", Integer(42)},
		{"negative integer", ":-7\r\n", Integer(-7)},
		{"bulk", "$5\r\nhello\r\n", Bulk("hello")},
		{"bulk with crlf inside", "$4\r\na\r\nb\r\n", Bulk("a\r\nb")},
		{"empty bulk", "$0\r\n\r\n", Bulk("")},
		{"nil bulk", "$-1\r\n", NilBulk()},
		{"nil array", "*-1\r\n", NilArray()},
		{"empty array", "*0\r\n", Array([]Reply{}...)},
		{
			"nested array",
			"*3\r\n:1\r\n$1\r\na\r\n*1\r\n+OK\r\n",
			Array(Integer(1), Bulk("a"), Array(Status("OK"))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadReply(reader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadReplyNilDiffersFromEmpty(t *testing.T) {
	empty, err := ReadReply(reader("$0\r\n\r\n"))
	require.NoError(t, err)
	absent, err := ReadReply(reader("$-1\r\n"))
	require.NoError(t, err)

	assert.False(t, empty.IsNil())
	assert.True(t, absent.IsNil())
	assert.NotEqual(t, empty, absent)
}

func TestReadReplyProtocolErrors(t *testing.T) {
	inputs := map[string]string{
		"unknown type":      "?what\r\n",
		"missing cr":        "+OK\n",
		"bad integer":       ":abc\r\n",
		"bad bulk length":   "$x\r\n",
		"bulk length range": "$-2\r\n",
		"bulk terminator":   "$2\r\nabXY",
		"empty line":        "\r\n",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := ReadReply(reader(input))
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrProtocol)
		})
	}
}

func TestReadReplyTruncated(t *testing.T) {
	_, err := ReadReply(reader("$10\r\nshort"))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = ReadReply(reader(""))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplyHelpers(t *testing.T) {
	assert.NoError(t, Bulk("x").Err())

	err := Error("WRONGTYPE bad").Err()
	require.Error(t, err)
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "WRONGTYPE bad", serverErr.Message)

	assert.Equal(t, "(nil)", NilBulk().String())
	assert.Equal(t, "[1 a]", Array(Integer(1), Bulk("a")).String())
	assert.Equal(t, "bulk", KindBulk.String())

	assert.True(t, IsReadOnly("get"))
	assert.False(t, IsReadOnly("ZADD"))
}

func TestAsStatus(t *testing.T) {
	tests := map[string]struct {
		name string
		args []string
		in   Reply
		want Reply
	}{
		"set ok":         {"SET", []string{"v"}, Bulk("OK"), Status("OK")},
		"set lower case": {"set", []string{"v", "PX", "10"}, Bulk("OK"), Status("OK")},
		"ping":           {"PING", nil, Bulk("PONG"), Status("PONG")},
		"set get option": {"SET", []string{"v", "get"}, Bulk("old"), Bulk("old")},
		"set value GET":  {"SET", []string{"GET"}, Bulk("OK"), Status("OK")},
		"set nil":        {"SET", []string{"v", "NX"}, NilBulk(), NilBulk()},
		"get keeps bulk": {"GET", nil, Bulk("OK"), Bulk("OK")},
		"integer":        {"SET", []string{"v"}, Integer(1), Integer(1)},
		"already status": {"PING", nil, Status("PONG"), Status("PONG")},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, AsStatus(tt.name, tt.args, tt.in))
		})
	}
}
