package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudflare/cfssl/log"
	"gotest.tools/assert"
)

func TestLoadFile(t *testing.T) {
	cfg, err := Load("config.yaml")
	assert.NilError(t, err)
	assert.Equal(t, cfg.Store.Backend, BackendLevelDB)
	assert.Equal(t, cfg.Chain.RewardUnit, int64(1))
	assert.Equal(t, cfg.Account.InitBalance, int64(1000))
	assert.Equal(t, cfg.Redis.EventList, "contractEvents")
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	os.Setenv("OPENANNOT_STORE_BACKEND", "memory")
	os.Setenv("OPENANNOT_CHAIN_TXS_THRESHOLD", "5")
	defer os.Unsetenv("OPENANNOT_STORE_BACKEND")
	defer os.Unsetenv("OPENANNOT_CHAIN_TXS_THRESHOLD")

	cfg, err := Load("")
	assert.NilError(t, err)
	assert.Equal(t, cfg.Store.Backend, BackendMemory)
	assert.Equal(t, cfg.Chain.TxsThreshold, 5)
	assert.Equal(t, cfg.Client.Addr, "127.0.0.1:8080")
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	assert.NilError(t, os.WriteFile(path, []byte("store:\n  backend: mongo\n"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown store backend")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLogLevel(t *testing.T) {
	cfg := &Config{}
	cfg.Log.Level = "ERROR"
	assert.Equal(t, cfg.LogLevel(), log.LevelError)
	cfg.Log.Level = ""
	assert.Equal(t, cfg.LogLevel(), log.LevelInfo)
}
