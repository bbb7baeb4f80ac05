package client

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/kuroko-shirai/embedis/v1/errs"
	"github.com/kuroko-shirai/embedis/v1/resp"
)

// Get читает строковое значение ключа.
func (it *Client) Get(ctx context.Context, key string) Result {
	if err := requireKey(key); err != nil {
		return failed(err)
	}

	reply, err := it.dispatch(ctx, key, "GET")
	if err != nil {
		return failed(err)
	}
	switch {
	case reply.IsNil():
		return notFound()
	case reply.Kind == resp.KindBulk:
		return found(reply.Str)
	default:
		return failed(unexpected("GET", reply))
	}
}

// Set записывает значение. Положительный ttl задаёт время жизни ключа.
func (it *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := requireKey(key); err != nil {
		return err
	}
	if ttl < 0 {
		return fmt.Errorf("%w: negative ttl", errs.ErrValidation)
	}

	args := []string{value}
	if ttl > 0 {
		args = append(args, "PX", millis(ttl))
	}
	reply, err := it.dispatch(ctx, key, "SET", args...)
	if err != nil {
		return err
	}
	if reply.Kind != resp.KindStatus || reply.Str != "OK" {
		return unexpected("SET", reply)
	}
	return nil
}

// Expire задаёт время жизни ключа. Возвращает false, если ключа нет.
func (it *Client) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := requireKey(key); err != nil {
		return false, err
	}
	if ttl <= 0 {
		return false, fmt.Errorf("%w: ttl must be positive", errs.ErrValidation)
	}

	n, err := it.integer(ctx, key, "PEXPIRE", millis(ttl))
	return n == 1, err
}

// ZAdd добавляет member в сортированное множество key (или обновляет score).
// Пустой member отклоняется без обращения к сети.
func (it *Client) ZAdd(ctx context.Context, key, member string, score float64) error {
	if err := requireKey(key); err != nil {
		return err
	}
	if err := requireMember(member); err != nil {
		return err
	}
	if math.IsNaN(score) {
		return fmt.Errorf("%w: score is NaN", errs.ErrValidation)
	}

	_, err := it.integer(ctx, key, "ZADD", strconv.FormatFloat(score, 'g', -1, 64), member)
	return err
}

// ZScore возвращает score участника; ok == false, если участника нет.
func (it *Client) ZScore(ctx context.Context, key, member string) (score float64, ok bool, err error) {
	if err := requireKey(key); err != nil {
		return 0, false, err
	}
	if err := requireMember(member); err != nil {
		return 0, false, err
	}

	reply, err := it.dispatch(ctx, key, "ZSCORE", member)
	if err != nil {
		return 0, false, err
	}
	if reply.IsNil() {
		return 0, false, nil
	}
	if reply.Kind != resp.KindBulk {
		return 0, false, unexpected("ZSCORE", reply)
	}
	score, err = strconv.ParseFloat(reply.Str, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: bad score %q", errs.ErrProtocol, reply.Str)
	}
	return score, true, nil
}

// SAdd добавляет value в множество key. Пустой value отклоняется
// без обращения к сети.
func (it *Client) SAdd(ctx context.Context, key, value string) error {
	if err := requireKey(key); err != nil {
		return err
	}
	if err := requireMember(value); err != nil {
		return err
	}

	_, err := it.integer(ctx, key, "SADD", value)
	return err
}

func (it *Client) SIsMember(ctx context.Context, key, value string) (bool, error) {
	if err := requireKey(key); err != nil {
		return false, err
	}
	if err := requireMember(value); err != nil {
		return false, err
	}

	n, err := it.integer(ctx, key, "SISMEMBER", value)
	return n == 1, err
}

func (it *Client) integer(ctx context.Context, key, name string, args ...string) (int64, error) {
	reply, err := it.dispatch(ctx, key, name, args...)
	if err != nil {
		return 0, err
	}
	if reply.Kind != resp.KindInteger {
		return 0, unexpected(name, reply)
	}
	return reply.Int, nil
}

func requireKey(key string) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: empty key", errs.ErrValidation)
	}
	return nil
}

func requireMember(member string) error {
	if len(member) == 0 {
		return fmt.Errorf("%w: empty member", errs.ErrValidation)
	}
	return nil
}

// millis округляет вверх до целой миллисекунды.
func millis(d time.Duration) string {
	ms := d.Milliseconds()
	if d%time.Millisecond != 0 {
		ms++
	}
	return strconv.FormatInt(ms, 10)
}
