package vault

import "escrow/address"

// 账户列表：[owner, vault, system_program]，第三个账户不做检查
const (
	accountOwner = iota
	accountVault
	accountSystem
	accountCount
)

// DepositAccounts 校验通过的存款账户
type DepositAccounts struct {
	Owner AccountHandle
	Vault AccountHandle
}

// WithdrawAccounts 校验通过的取款账户，带规范 bump 用于重建签名凭证
type WithdrawAccounts struct {
	Owner AccountHandle
	Vault AccountHandle
	Bump  uint8
}

// checkCommon 两种指令共享的前三项检查：数量、签名、控制方
func checkCommon(accounts []AccountHandle, custody address.Address) (owner, vault AccountHandle, err error) {
	if len(accounts) != accountCount {
		return nil, nil, ErrMissingAccounts
	}
	owner, vault = accounts[accountOwner], accounts[accountVault]
	if owner == nil || vault == nil {
		return nil, nil, ErrMissingAccounts
	}
	if !owner.IsSigner() {
		return nil, nil, ErrUnauthorized
	}
	if vault.Owner() != custody {
		return nil, nil, ErrInvalidVaultOwner
	}
	return owner, vault, nil
}

// ParseDepositAccounts 存款账户校验，金库必须为空
func ParseDepositAccounts(accounts []AccountHandle, d *Deriver, custody address.Address) (*DepositAccounts, error) {
	owner, vault, err := checkCommon(accounts, custody)
	if err != nil {
		return nil, err
	}
	if vault.Lamports() != 0 {
		return nil, ErrVaultNotEmpty
	}
	want, _, err := d.Derive(owner.Address())
	if err != nil {
		return nil, err
	}
	if vault.Address() != want {
		return nil, ErrVaultAddressMismatch
	}
	return &DepositAccounts{Owner: owner, Vault: vault}, nil
}

// ParseWithdrawAccounts 取款账户校验，金库必须有余额
func ParseWithdrawAccounts(accounts []AccountHandle, d *Deriver, custody address.Address) (*WithdrawAccounts, error) {
	owner, vault, err := checkCommon(accounts, custody)
	if err != nil {
		return nil, err
	}
	if vault.Lamports() == 0 {
		return nil, ErrVaultEmpty
	}
	want, bump, err := d.Derive(owner.Address())
	if err != nil {
		return nil, err
	}
	if vault.Address() != want {
		return nil, ErrVaultAddressMismatch
	}
	return &WithdrawAccounts{Owner: owner, Vault: vault, Bump: bump}, nil
}
