package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kuroko-shirai/embedis/v1/errs"
)

func TestParseAddresses(t *testing.T) {
	assert.Equal(t, []string{"127.0.0.1:7000", "127.0.0.1:7001"}, ParseAddresses("127.0.0.1:7000, 127.0.0.1:7001,"))
	assert.Equal(t, []string{"127.0.0.1:6379"}, ParseAddresses("127.0.0.1:6379"))
	assert.Empty(t, ParseAddresses(" , "))
}

func TestConfigValidate(t *testing.T) {
	valid := Config{Addresses: []string{"127.0.0.1:6379"}, MaxConns: 1}
	assert.NoError(t, valid.Validate())

	tests := map[string]struct {
		config Config
		target error
	}{
		"no addresses":     {Config{MaxConns: 1}, errs.ErrValidation},
		"empty address":    {Config{Addresses: []string{""}, MaxConns: 1}, errs.ErrValidation},
		"zero conns":       {Config{Addresses: []string{"a:1"}}, errs.ErrValidation},
		"negative timeout": {Config{Addresses: []string{"a:1"}, MaxConns: 1, ConnectTimeout: -time.Millisecond}, errs.ErrValidation},
		"unknown backend":  {Config{Addresses: []string{"a:1"}, MaxConns: 1, Backend: "memcached"}, errs.ErrUnknownBackend},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, tt.config.Validate(), tt.target)

			_, err := New(tt.config)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}
