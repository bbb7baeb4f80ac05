package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuroko-shirai/embedis/v1/cluster"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
logLevel: debug
redis:
  backend: rueidis
  addresses:
    - 127.0.0.1:7000
    - 127.0.0.1:7001
  password: secret
  maxConns: 8
  rwTimeout: 250ms
  replicaReads: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, cluster.Config{
		Backend:        cluster.BackendRueidis,
		Addresses:      []string{"127.0.0.1:7000", "127.0.0.1:7001"},
		Password:       "secret",
		MaxConns:       8,
		ConnectTimeout: time.Second,
		RWTimeout:      250 * time.Millisecond,
		ReplicaReads:   true,
	}, cfg.Redis)

	// vre не задан в файле и сохраняет значения по умолчанию
	assert.Equal(t, Default().Vre, cfg.Vre)
	assert.Empty(t, cfg.Vre.Addresses)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis: [unclosed"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
