package vault

import "errors"

// Error 金库指令的校验错误，封闭枚举
type Error uint32

const (
	ErrMissingAccounts Error = iota + 1
	ErrUnauthorized
	ErrInvalidVaultOwner
	ErrVaultNotEmpty
	ErrVaultEmpty
	ErrVaultAddressMismatch
	ErrMalformedInstructionData
	ErrZeroAmount
)

var errorText = map[Error]string{
	ErrMissingAccounts:          "missing accounts",
	ErrUnauthorized:             "owner did not sign",
	ErrInvalidVaultOwner:        "vault is not held by the custody authority",
	ErrVaultNotEmpty:            "vault is not empty",
	ErrVaultEmpty:               "vault is empty",
	ErrVaultAddressMismatch:     "vault address does not match derivation",
	ErrMalformedInstructionData: "malformed instruction data",
	ErrZeroAmount:               "amount must be greater than zero",
}

func (e Error) Error() string {
	if s, ok := errorText[e]; ok {
		return s
	}
	return "unknown vault error"
}

// Code 对外暴露的数字错误码
func (e Error) Code() uint32 {
	return uint32(e)
}

// ErrUnknownInstruction 分发器收到未注册的操作码
var ErrUnknownInstruction = errors.New("unknown instruction opcode")

// 退出码
const (
	ExitOK              = 0
	ExitUnknownOpcode   = 100
	ExitExternalFailure = 101
)

// ExitCode 把处理结果映射为进程退出码：
// 0 成功；金库错误取其 Code；未知操作码和外部失败各有固定值
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ve Error
	if errors.As(err, &ve) {
		return int(ve.Code())
	}
	if errors.Is(err, ErrUnknownInstruction) {
		return ExitUnknownOpcode
	}
	return ExitExternalFailure
}
