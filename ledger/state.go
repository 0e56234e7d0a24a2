package ledger

import (
	"fmt"

	"escrow/address"
	"escrow/keys"
)

// loadAccount 不存在的账户返回系统程序持有的空账户
func loadAccount(sv StateView, addr address.Address) (Account, error) {
	raw, ok, err := sv.Get(keys.KeyAccount(addr.String()))
	if err != nil {
		return Account{}, fmt.Errorf("load account %s: %w", addr, err)
	}
	if !ok {
		return Account{Owner: address.SystemProgramID}, nil
	}
	acc, err := UnmarshalAccount(raw)
	if err != nil {
		return Account{}, fmt.Errorf("load account %s: %w", addr, err)
	}
	return acc, nil
}

// storeAccount 余额为 0 的账户直接删除记录
func storeAccount(sv StateView, addr address.Address, acc Account) {
	key := keys.KeyAccount(addr.String())
	if acc.Lamports == 0 {
		sv.Del(key)
		return
	}
	sv.Set(key, acc.Marshal())
}
