package resp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/kuroko-shirai/embedis/v1/errs"
)

const (
	maxBulkLen  = 512 << 20
	maxArrayLen = 1 << 24
	maxDepth    = 32
)

// ReadReply читает ровно один ответ из r.
// Ошибки ввода-вывода возвращаются как есть, нарушения формата
// оборачивают errs.ErrProtocol.
func ReadReply(r *bufio.Reader) (Reply, error) {
	return readReply(r, 0)
}

func readReply(r *bufio.Reader, depth int) (Reply, error) {
	if depth > maxDepth {
		return Reply{}, fmt.Errorf("%w: nesting deeper than %d", errs.ErrProtocol, maxDepth)
	}

	line, err := readLine(r)
	if err != nil {
		return Reply{}, err
	}
	if len(line) == 0 {
		return Reply{}, fmt.Errorf("%w: empty line", errs.ErrProtocol)
	}

	payload := string(line[1:])
	switch line[0] {
	case '+':
		return Status(payload), nil
	case '-':
		return Error(payload), nil
	case ':':
		n, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: bad integer %q", errs.ErrProtocol, payload)
		}
		return Integer(n), nil
	case '$':
		n, err := parseLen(payload, maxBulkLen)
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return NilBulk(), nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Reply{}, err
		}
		if buf[n] != '\r' || buf[n+1] != '\n' {
			return Reply{}, fmt.Errorf("%w: bulk string not terminated by CRLF", errs.ErrProtocol)
		}
		return Bulk(string(buf[:n])), nil
	case '*':
		n, err := parseLen(payload, maxArrayLen)
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return NilArray(), nil
		}
		elems := make([]Reply, 0, n)
		for i := 0; i < n; i++ {
			elem, err := readReply(r, depth+1)
			if err != nil {
				return Reply{}, err
			}
			elems = append(elems, elem)
		}
		return Array(elems...), nil
	default:
		return Reply{}, fmt.Errorf("%w: unexpected type byte %q", errs.ErrProtocol, line[0])
	}
}

// readLine возвращает строку без завершающего CRLF.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		return nil, fmt.Errorf("%w: line too long", errs.ErrProtocol)
	}
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, fmt.Errorf("%w: line not terminated by CRLF", errs.ErrProtocol)
	}
	return line[:len(line)-2], nil
}

func parseLen(s string, limit int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: bad length %q", errs.ErrProtocol, s)
	}
	if n < -1 || n > limit {
		return 0, fmt.Errorf("%w: length %d out of range", errs.ErrProtocol, n)
	}
	return n, nil
}
