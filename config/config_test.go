package config

import (
	"os"
	"path/filepath"
	"testing"

	"escrow/address"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	if cfg.Program.SeedLabel != "vault" {
		t.Errorf("SeedLabel = %q, want vault", cfg.Program.SeedLabel)
	}
	if cfg.CustodyAddress() != address.SystemProgramID {
		t.Error("default custody should be the system program")
	}
	if cfg.ProgramAddress().IsZero() {
		t.Error("default program id should parse")
	}
	if cfg.Cache.DeriveCacheSize != 1024 {
		t.Errorf("DeriveCacheSize = %d, want 1024", cfg.Cache.DeriveCacheSize)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	// 文件不存在时返回默认配置
	cfg, err := LoadFromFile(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ledger":{"tx_fee":5000},"database":{"in_memory":true}}`), 0o644))
	cfg, err = LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), cfg.Ledger.TxFee)
	assert.True(t, cfg.Database.InMemory)
	// 未覆盖的字段保持默认
	assert.Equal(t, DefaultProgramID, cfg.Program.ProgramID)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad program id", func(c *Config) { c.Program.ProgramID = "not-base58-0OIl" }},
		{"bad custody", func(c *Config) { c.Program.Custody = "" }},
		{"empty label", func(c *Config) { c.Program.SeedLabel = "" }},
		{"long label", func(c *Config) { c.Program.SeedLabel = "0123456789abcdef0123456789abcdefX" }},
		{"no db path", func(c *Config) { c.Database.Path = "" }},
		{"negative cache", func(c *Config) { c.Cache.DeriveCacheSize = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
