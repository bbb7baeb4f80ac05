// Package node реализует пул соединений к одному узлу хранилища.
package node

import (
	"fmt"
	"time"

	"github.com/kuroko-shirai/embedis/v1/errs"
)

type (
	Config struct {
		Address  string
		Username string
		Password string

		// MaxConns - верхняя граница живых соединений к узлу.
		MaxConns int

		// Нулевые таймауты означают "без ограничения".
		ConnectTimeout time.Duration
		RWTimeout      time.Duration
	}
)

func (it Config) Validate() error {
	if len(it.Address) == 0 {
		return fmt.Errorf("%w: empty node address", errs.ErrValidation)
	}
	if it.MaxConns <= 0 {
		return fmt.Errorf("%w: max connections must be positive, got %d", errs.ErrValidation, it.MaxConns)
	}
	if it.ConnectTimeout < 0 || it.RWTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", errs.ErrValidation)
	}
	return nil
}
