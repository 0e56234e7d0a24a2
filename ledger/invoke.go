package ledger

import (
	"errors"
	"fmt"
	"math"

	"escrow/address"
	"escrow/vault"
)

var (
	ErrAccountNotInTx      = errors.New("account not referenced by transaction")
	ErrMissingSignature    = errors.New("missing required signature")
	ErrReadonlyAccount     = errors.New("account is not writable")
	ErrTransferFromForeign = errors.New("transfer source is not owned by the system program")
	ErrInsufficientFunds   = errors.New("insufficient lamports")
	ErrLamportOverflow     = errors.New("lamport balance overflow")
)

// entry 一笔交易内加载的账户，同一地址只加载一次
type entry struct {
	addr     address.Address
	acc      Account
	signer   bool
	writable bool
	dirty    bool
}

// handle 实现 vault.AccountHandle，读的是交易内的最新值
type handle struct {
	e *entry
}

func (h handle) Address() address.Address { return h.e.addr }
func (h handle) IsSigner() bool           { return h.e.signer }
func (h handle) Owner() address.Address   { return h.e.acc.Owner }
func (h handle) Lamports() uint64         { return h.e.acc.Lamports }

// invocation 一次程序调用的上下文，同时充当系统程序的转账能力
type invocation struct {
	programID address.Address
	entries   map[address.Address]*entry
	handles   []vault.AccountHandle
	transfers int
}

var _ vault.Transferer = (*invocation)(nil)

func newInvocation(sv StateView, programID address.Address, metas []AccountMeta) (*invocation, error) {
	inv := &invocation{
		programID: programID,
		entries:   make(map[address.Address]*entry, len(metas)),
		handles:   make([]vault.AccountHandle, 0, len(metas)),
	}
	for _, m := range metas {
		e, ok := inv.entries[m.Address]
		if !ok {
			acc, err := loadAccount(sv, m.Address)
			if err != nil {
				return nil, err
			}
			e = &entry{addr: m.Address, acc: acc}
			inv.entries[m.Address] = e
		}
		e.signer = e.signer || m.IsSigner
		e.writable = e.writable || m.IsWritable
		inv.handles = append(inv.handles, handle{e})
	}
	return inv, nil
}

// flush 把改动过的账户写回视图
func (inv *invocation) flush(sv StateView) {
	for _, e := range inv.entries {
		if e.dirty {
			storeAccount(sv, e.addr, e.acc)
		}
	}
}

func (inv *invocation) lookup(h vault.AccountHandle) (*entry, error) {
	if h == nil {
		return nil, ErrAccountNotInTx
	}
	e, ok := inv.entries[h.Address()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotInTx, h.Address())
	}
	return e, nil
}

// Transfer 普通转账，from 必须是交易签名者
func (inv *invocation) Transfer(from, to vault.AccountHandle, lamports uint64) error {
	src, err := inv.lookup(from)
	if err != nil {
		return err
	}
	if !src.signer {
		return fmt.Errorf("%w: %s", ErrMissingSignature, src.addr)
	}
	return inv.move(src, to, lamports)
}

// TransferSigned from 是调用程序的派生地址，凭种子证明签名权
func (inv *invocation) TransferSigned(from, to vault.AccountHandle, lamports uint64, proofs ...vault.SigningProof) error {
	src, err := inv.lookup(from)
	if err != nil {
		return err
	}
	authorized := src.signer
	for _, p := range proofs {
		pda, err := address.CreateProgramAddress(p.Raw(), inv.programID)
		if err != nil {
			return fmt.Errorf("signing proof: %w", err)
		}
		if pda == src.addr {
			authorized = true
			break
		}
	}
	if !authorized {
		return fmt.Errorf("%w: %s", ErrMissingSignature, src.addr)
	}
	return inv.move(src, to, lamports)
}

func (inv *invocation) move(src *entry, to vault.AccountHandle, lamports uint64) error {
	dst, err := inv.lookup(to)
	if err != nil {
		return err
	}
	if !src.writable {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, src.addr)
	}
	if !dst.writable {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, dst.addr)
	}
	if src.acc.Owner != address.SystemProgramID {
		return fmt.Errorf("%w: %s", ErrTransferFromForeign, src.addr)
	}
	if src.acc.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientFunds, src.addr, src.acc.Lamports, lamports)
	}
	if src == dst {
		inv.transfers++
		return nil
	}
	if dst.acc.Lamports > math.MaxUint64-lamports {
		return fmt.Errorf("%w: %s", ErrLamportOverflow, dst.addr)
	}
	src.acc.Lamports -= lamports
	dst.acc.Lamports += lamports
	src.dirty, dst.dirty = true, true
	inv.transfers++
	return nil
}
