package vault

import "escrow/address"

// Withdraw 取款：vault 全部余额 -> owner
type Withdraw struct {
	Accounts *WithdrawAccounts
	proof    SigningProof
}

// NewWithdraw 取款没有指令数据
func NewWithdraw(accounts []AccountHandle, d *Deriver, custody address.Address) (*Withdraw, error) {
	accs, err := ParseWithdrawAccounts(accounts, d, custody)
	if err != nil {
		return nil, err
	}
	return &Withdraw{
		Accounts: accs,
		proof:    d.Proof(accs.Owner.Address(), accs.Bump),
	}, nil
}

// Proof 金库代签凭证：["vault", owner, bump]
func (w *Withdraw) Proof() SigningProof {
	return w.proof
}

// Process 金库没有私钥，用种子凭证代签
func (w *Withdraw) Process(t Transferer) error {
	return t.TransferSigned(w.Accounts.Vault, w.Accounts.Owner, w.Accounts.Vault.Lamports(), w.proof)
}
