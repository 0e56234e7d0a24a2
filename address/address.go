// address/address.go
// 32 字节账户地址：base58 文本形式与系统程序 ID

package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// Size 地址长度（ed25519 公钥长度）
const Size = 32

var (
	// ErrInvalidBase58 base58 解码失败
	ErrInvalidBase58 = errors.New("invalid base58 address")
	// ErrInvalidLength 地址长度不是 32 字节
	ErrInvalidLength = errors.New("invalid address length")
)

// Address 账户地址
type Address [Size]byte

// SystemProgramID 系统程序地址（全零，base58 为 "11111111111111111111111111111111"）
var SystemProgramID = Address{}

// Parse 解析 base58 地址
func Parse(s string) (Address, error) {
	if s == "" {
		return Address{}, ErrInvalidBase58
	}
	raw := base58.Decode(s)
	if len(raw) == 0 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidBase58, s)
	}
	return FromBytes(raw)
}

// MustParse 解析失败直接 panic，仅用于常量和测试
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromBytes 从原始字节构造地址
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("%w: got %d bytes", ErrInvalidLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// String 返回 base58 形式
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes 返回地址副本
func (a Address) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, a[:])
	return b
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) Equal(o Address) bool {
	return bytes.Equal(a[:], o[:])
}

// Short 日志里用的短格式
func (a Address) Short() string {
	s := a.String()
	if len(s) <= 8 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}
