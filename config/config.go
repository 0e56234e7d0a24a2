// config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"escrow/address"
)

// DefaultProgramID 默认金库程序 ID
const DefaultProgramID = "BLJjGDVyvhTxqkP8AWiqypAHoA7LcE8b3xXETmG2FaNi"

// Config 主配置结构
type Config struct {
	Program  ProgramConfig  `json:"program"`
	Database DatabaseConfig `json:"database"`
	Cache    CacheConfig    `json:"cache"`
	Ledger   LedgerConfig   `json:"ledger"`
	Log      LogConfig      `json:"log"`
}

// ProgramConfig 金库程序配置
type ProgramConfig struct {
	ProgramID string `json:"program_id"` // base58
	SeedLabel string `json:"seed_label"` // "vault"
	// Custody 金库账户必须归属的控制方，默认系统程序
	Custody string `json:"custody"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// BadgerDB配置
	Path             string `json:"path"`                // ./data
	ValueLogFileSize int64  `json:"value_log_file_size"` // 64 << 20 (64MB)
	InMemory         bool   `json:"in_memory"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	DeriveCacheSize int `json:"derive_cache_size"` // 1024
}

// LedgerConfig 执行环境配置
type LedgerConfig struct {
	// 每笔交易由手续费支付方承担，单位 lamports
	TxFee uint64 `json:"tx_fee"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `json:"level"` // info
	Tag   string `json:"tag"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Program: ProgramConfig{
			ProgramID: DefaultProgramID,
			SeedLabel: "vault",
			Custody:   address.SystemProgramID.String(),
		},
		Database: DatabaseConfig{
			Path:             "./data",
			ValueLogFileSize: 64 << 20,
		},
		Cache: CacheConfig{
			DeriveCacheSize: 1024,
		},
		Ledger: LedgerConfig{
			TxFee: 0,
		},
		Log: LogConfig{
			Level: "info",
			Tag:   "escrow",
		},
	}
}

// LoadFromFile 从 JSON 文件加载配置，未出现的字段保留默认值；文件不存在时返回默认配置
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置合法性
func (c *Config) Validate() error {
	if _, err := address.Parse(c.Program.ProgramID); err != nil {
		return fmt.Errorf("program_id: %w", err)
	}
	if _, err := address.Parse(c.Program.Custody); err != nil {
		return fmt.Errorf("custody: %w", err)
	}
	if c.Program.SeedLabel == "" {
		return fmt.Errorf("seed_label must not be empty")
	}
	if len(c.Program.SeedLabel) > address.MaxSeedLen {
		return fmt.Errorf("seed_label longer than %d bytes", address.MaxSeedLen)
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database path must be set")
	}
	if c.Database.ValueLogFileSize <= 0 {
		return fmt.Errorf("ValueLogFileSize must be positive")
	}
	if c.Cache.DeriveCacheSize < 0 {
		return fmt.Errorf("DeriveCacheSize must not be negative")
	}
	return nil
}

// ProgramAddress 解析后的程序 ID
func (c *Config) ProgramAddress() address.Address {
	a, err := address.Parse(c.Program.ProgramID)
	if err != nil {
		return address.Address{}
	}
	return a
}

// CustodyAddress 解析后的控制方
func (c *Config) CustodyAddress() address.Address {
	a, err := address.Parse(c.Program.Custody)
	if err != nil {
		return address.SystemProgramID
	}
	return a
}
