package ledger

import (
	"errors"
	"fmt"
	"os"

	"escrow/config"

	"github.com/dgraph-io/badger/v2"
)

// WriteOp 状态变更
type WriteOp struct {
	Key   string
	Value []byte
	Del   bool
}

// Store 底层持久化
type Store interface {
	// Get 不存在返回 (nil, nil)
	Get(key string) ([]byte, error)
	// Apply 一次性原子写入
	Apply(ops []WriteOp) error
	Scan(prefix string) (map[string][]byte, error)
	Close() error
}

// BadgerStore BadgerDB 实现
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore 打开（或创建）数据库
func OpenBadgerStore(cfg config.DatabaseConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// badger v2 不自动创建父目录，需要手动创建
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return val, nil
}

func (s *BadgerStore) Apply(ops []WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			var err error
			if op.Del {
				err = txn.Delete([]byte(op.Key))
			} else {
				err = txn.Set([]byte(op.Key), op.Value)
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", op.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply %d ops: %w", len(ops), err)
	}
	return nil
}

func (s *BadgerStore) Scan(prefix string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[string(item.KeyCopy(nil))] = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	return out, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
