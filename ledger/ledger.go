package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"escrow/address"
	"escrow/config"
	"escrow/keys"
	"escrow/logs"
	"escrow/vault"
)

// ErrReceiptNotFound 回执不存在
var ErrReceiptNotFound = errors.New("receipt not found")

// Ledger 账本：存储 + 金库程序 + 执行器
type Ledger struct {
	cfg      *config.Config
	store    Store
	program  *vault.Program
	executor *Executor
}

// Open 按配置打开 badger 账本
func Open(cfg *config.Config) (*Ledger, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	store, err := OpenBadgerStore(cfg.Database)
	if err != nil {
		return nil, err
	}
	l, err := New(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return l, nil
}

// New 使用给定存储构造账本
func New(cfg *config.Config, store Store) (*Ledger, error) {
	deriver, err := vault.NewDeriver(cfg.ProgramAddress(), cfg.Program.SeedLabel, cfg.Cache.DeriveCacheSize)
	if err != nil {
		return nil, err
	}
	program := vault.NewProgram(deriver, cfg.CustodyAddress())
	logs.Debug("[ledger] program %s custody %s", program.ID(), cfg.CustodyAddress())
	return &Ledger{
		cfg:      cfg,
		store:    store,
		program:  program,
		executor: NewExecutor(store, program, cfg.Ledger.TxFee),
	}, nil
}

func (l *Ledger) ProgramID() address.Address {
	return l.program.ID()
}

func (l *Ledger) Program() *vault.Program {
	return l.program
}

// VaultAddress owner 的金库地址
func (l *Ledger) VaultAddress(owner address.Address) (address.Address, uint8, error) {
	return l.program.Deriver().Derive(owner)
}

// Account 读取账户（不存在返回空账户）
func (l *Ledger) Account(addr address.Address) (Account, error) {
	return loadAccount(NewStateView(l.store.Get), addr)
}

func (l *Ledger) Balance(addr address.Address) (uint64, error) {
	acc, err := l.Account(addr)
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

// Airdrop 直接给系统账户增发，用于初始化和测试
func (l *Ledger) Airdrop(addr address.Address, lamports uint64) error {
	sv := NewStateView(l.store.Get)
	acc, err := loadAccount(sv, addr)
	if err != nil {
		return err
	}
	if acc.Lamports > math.MaxUint64-lamports {
		return fmt.Errorf("%w: %s", ErrLamportOverflow, addr)
	}
	acc.Lamports += lamports
	storeAccount(sv, addr, acc)
	if err := l.store.Apply(sv.Diff()); err != nil {
		return err
	}
	logs.Info("[ledger] airdrop %d lamports to %s", lamports, addr)
	return nil
}

// Execute 执行已签名交易
func (l *Ledger) Execute(tx *Transaction) (*Receipt, error) {
	return l.executor.Execute(tx)
}

// Receipt 查询回执
func (l *Ledger) Receipt(txID string) (*Receipt, error) {
	raw, err := l.store.Get(keys.KeyReceipt(txID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, txID)
	}
	var r Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse receipt %s: %w", txID, err)
	}
	return &r, nil
}

// AccountEntry 账户列表项
type AccountEntry struct {
	Address address.Address
	Account Account
}

// Accounts 列出所有非空账户，按地址排序
func (l *Ledger) Accounts() ([]AccountEntry, error) {
	raw, err := l.store.Scan(keys.NameOfKeyAccount())
	if err != nil {
		return nil, err
	}
	out := make([]AccountEntry, 0, len(raw))
	for k, v := range raw {
		s, ok := keys.AccountFromKey(k)
		if !ok {
			continue
		}
		addr, err := address.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("account key %s: %w", k, err)
		}
		acc, err := UnmarshalAccount(v)
		if err != nil {
			return nil, err
		}
		out = append(out, AccountEntry{Address: addr, Account: acc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.String() < out[j].Address.String() })
	return out, nil
}

func (l *Ledger) Close() error {
	return l.store.Close()
}
