// keys/keys.go
// 统一的 Key 定义包，供 ledger 存储与 CLI 共同使用
package keys

import (
	"strings"
)

// ===================== 版本控制 =====================
// 全局 Key 版本前缀（例如 "v1" → 产出 "v1_<key>"）
const KeyVersion = "v1"

// withVer 把版本号拼到最前面（保持下划线风格：v1_<...>）
func withVer(s string) string {
	if KeyVersion == "" {
		return s
	}
	return KeyVersion + "_" + s
}

// StripVersion 去掉版本前缀
func StripVersion(prefixed string) string {
	if KeyVersion == "" {
		return prefixed
	}
	return strings.TrimPrefix(prefixed, KeyVersion+"_")
}

// ===================== 账户相关 =====================

// KeyAccount 账户记录
// 例：v1_account_<base58 address>
func KeyAccount(addr string) string {
	return withVer("account_" + addr)
}

// NameOfKeyAccount 账户前缀
func NameOfKeyAccount() string {
	return withVer("account_")
}

// AccountFromKey 从账户 key 取回地址
func AccountFromKey(key string) (string, bool) {
	p := NameOfKeyAccount()
	if !strings.HasPrefix(key, p) {
		return "", false
	}
	return key[len(p):], true
}

// ===================== 交易相关 =====================

// KeyReceipt 交易回执
// 例：v1_receipt_<txID>
func KeyReceipt(txID string) string {
	return withVer("receipt_" + txID)
}

// NameOfKeyReceipt 回执前缀
func NameOfKeyReceipt() string {
	return withVer("receipt_")
}

// KeyTxRaw 交易原文（不可变）
// 例：v1_txraw_<txID>
func KeyTxRaw(txID string) string {
	return withVer("txraw_" + txID)
}
