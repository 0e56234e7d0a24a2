package vault

import "escrow/address"

// Deposit 存款：owner -> vault
type Deposit struct {
	Accounts *DepositAccounts
	Amount   uint64
}

// NewDeposit 先校验账户，再解码数据
func NewDeposit(accounts []AccountHandle, data []byte, d *Deriver, custody address.Address) (*Deposit, error) {
	accs, err := ParseDepositAccounts(accounts, d, custody)
	if err != nil {
		return nil, err
	}
	amount, err := ParseDepositData(data)
	if err != nil {
		return nil, err
	}
	return &Deposit{Accounts: accs, Amount: amount}, nil
}

// Process owner 自己签名，普通转账即可
func (dep *Deposit) Process(t Transferer) error {
	return t.Transfer(dep.Accounts.Owner, dep.Accounts.Vault, dep.Amount)
}
