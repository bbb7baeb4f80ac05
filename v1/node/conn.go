package node

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

// Conn - одно соединение к узлу. Принадлежит пулу и в каждый момент
// времени выдаётся только одному вызывающему.
type Conn struct {
	netConn   net.Conn
	reader    *bufio.Reader
	writer    *bufio.Writer
	address   string
	rwTimeout time.Duration
	broken    bool
	buf       []byte
}

func newConn(netConn net.Conn, address string, rwTimeout time.Duration) *Conn {
	return &Conn{
		netConn:   netConn,
		reader:    bufio.NewReader(netConn),
		writer:    bufio.NewWriter(netConn),
		address:   address,
		rwTimeout: rwTimeout,
	}
}

func (it *Conn) Address() string {
	return it.address
}

// Broken сообщает, что соединение пережило ошибку ввода-вывода
// и будет выброшено при возврате в пул.
func (it *Conn) Broken() bool {
	return it.broken
}

// Do отправляет одну команду и читает один ответ.
// Ответ сервера с ошибкой ("-ERR") ошибкой Go не считается.
func (it *Conn) Do(ctx context.Context, name string, args ...string) (resp.Reply, error) {
	if err := it.netConn.SetDeadline(it.deadline(ctx)); err != nil {
		return resp.Reply{}, it.fail(err)
	}

	it.buf = resp.AppendCommand(it.buf[:0], name, args...)
	if _, err := it.writer.Write(it.buf); err != nil {
		return resp.Reply{}, it.fail(err)
	}
	if err := it.writer.Flush(); err != nil {
		return resp.Reply{}, it.fail(err)
	}

	reply, err := resp.ReadReply(it.reader)
	if err != nil {
		return resp.Reply{}, it.fail(err)
	}
	return reply, nil
}

func (it *Conn) deadline(ctx context.Context) time.Time {
	var deadline time.Time
	if it.rwTimeout > 0 {
		deadline = time.Now().Add(it.rwTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}

// fail помечает соединение сломанным и классифицирует ошибку.
func (it *Conn) fail(err error) error {
	it.broken = true
	return classify(it.address, err)
}

func (it *Conn) close() error {
	return it.netConn.Close()
}

func classify(address string, err error) error {
	if errors.Is(err, errs.ErrProtocol) {
		return fmt.Errorf("%s: %w", address, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %v", errs.ErrTimeout, address, err)
	}
	return fmt.Errorf("%w: %s: %v", errs.ErrConnection, address, err)
}
