package ledger

import (
	"escrow/address"
	"escrow/vault"
)

// vaultMetas 金库指令的账户布局：[owner, vault, system_program]
func vaultMetas(owner, vaultAddr address.Address) []AccountMeta {
	return []AccountMeta{
		{Address: owner, IsSigner: true, IsWritable: true},
		{Address: vaultAddr, IsWritable: true},
		{Address: address.SystemProgramID},
	}
}

// NewDepositMessage 构造存款消息
func NewDepositMessage(programID, owner, vaultAddr address.Address, amount, nonce uint64) Message {
	return Message{
		ProgramID: programID,
		Opcode:    vault.OpDeposit,
		Accounts:  vaultMetas(owner, vaultAddr),
		Data:      vault.EncodeDepositData(amount),
		Nonce:     nonce,
	}
}

// NewWithdrawMessage 构造取款消息
func NewWithdrawMessage(programID, owner, vaultAddr address.Address, nonce uint64) Message {
	return Message{
		ProgramID: programID,
		Opcode:    vault.OpWithdraw,
		Accounts:  vaultMetas(owner, vaultAddr),
		Nonce:     nonce,
	}
}
