package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"escrow/address"
	"escrow/keys"
	"escrow/logs"
	"escrow/vault"
)

var (
	ErrNilTx          = errors.New("nil transaction")
	ErrUnknownProgram = errors.New("transaction targets an unknown program")
	ErrNoFeePayer     = errors.New("transaction has no signer to pay the fee")
	ErrDuplicateTx    = errors.New("transaction already processed")
)

const (
	StatusSucceed = "SUCCEED"
	StatusFailed  = "FAILED"
)

// Receipt 记录执行结果
type Receipt struct {
	TxID       string `json:"tx_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	ExitCode   int    `json:"exit_code"`
	Opcode     uint8  `json:"opcode"`
	Fee        uint64 `json:"fee"`
	Transfers  int    `json:"transfers"`
	WriteCount int    `json:"write_count"`
	Timestamp  int64  `json:"timestamp"`
}

// Executor 串行执行交易：验签、扣手续费、调用金库程序、原子提交
type Executor struct {
	mu      sync.Mutex
	store   Store
	program *vault.Program
	fee     uint64
	now     func() time.Time
}

// NewExecutor fee 每笔交易由手续费支付方承担，不经过金库程序
func NewExecutor(store Store, program *vault.Program, fee uint64) *Executor {
	return &Executor{store: store, program: program, fee: fee, now: time.Now}
}

// Execute 交易被拒（签名、手续费、存储）时返回 (nil, err)，不落任何状态；
// 程序执行失败时状态回滚到扣费之后，回执和手续费照常提交，err 为程序错误
func (e *Executor) Execute(tx *Transaction) (*Receipt, error) {
	if tx == nil {
		return nil, ErrNilTx
	}
	if tx.Message.ProgramID != e.program.ID() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, tx.Message.ProgramID)
	}
	if err := tx.Verify(); err != nil {
		return nil, err
	}
	payer, ok := tx.Message.FeePayer()
	if !ok {
		return nil, ErrNoFeePayer
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	txID := tx.ID()
	if prev, err := e.store.Get(keys.KeyReceipt(txID)); err != nil {
		return nil, err
	} else if prev != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTx, txID)
	}

	sv := NewStateView(e.store.Get)
	if err := e.chargeFee(sv, payer); err != nil {
		return nil, err
	}
	afterFee := sv.Snapshot()

	receipt := &Receipt{
		TxID:      txID,
		Opcode:    tx.Message.Opcode,
		Fee:       e.fee,
		Timestamp: e.now().Unix(),
	}

	inv, runErr := newInvocation(sv, e.program.ID(), tx.Message.Accounts)
	if runErr == nil {
		runErr = e.program.Process(tx.Message.Opcode, inv.handles, tx.Message.Data, inv)
	}
	if runErr == nil {
		inv.flush(sv)
		receipt.Status = StatusSucceed
		receipt.Transfers = inv.transfers
	} else {
		if err := sv.Revert(afterFee); err != nil {
			return nil, err
		}
		receipt.Status = StatusFailed
		receipt.Error = runErr.Error()
	}
	receipt.ExitCode = vault.ExitCode(runErr)

	sv.Set(keys.KeyTxRaw(txID), tx.Marshal())
	// 回执自身也计入写入条数
	receipt.WriteCount = len(sv.Diff()) + 1
	data, err := json.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt: %w", err)
	}
	sv.Set(keys.KeyReceipt(txID), data)

	if err := e.store.Apply(sv.Diff()); err != nil {
		return nil, err
	}

	if runErr != nil {
		logs.Warn("[ledger] tx %s failed: %v", txID, runErr)
		return receipt, runErr
	}
	logs.Info("[ledger] tx %s committed, %d writes", txID, receipt.WriteCount)
	return receipt, nil
}

func (e *Executor) chargeFee(sv StateView, payer address.Address) error {
	if e.fee == 0 {
		return nil
	}
	acc, err := loadAccount(sv, payer)
	if err != nil {
		return err
	}
	if acc.Lamports < e.fee {
		return fmt.Errorf("%w: fee payer %s has %d, fee %d", ErrInsufficientFunds, payer, acc.Lamports, e.fee)
	}
	acc.Lamports -= e.fee
	storeAccount(sv, payer, acc)
	return nil
}
