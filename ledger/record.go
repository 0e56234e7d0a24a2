package ledger

import (
	"errors"
	"fmt"

	"escrow/address"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformedRecord 账户记录无法解码
var ErrMalformedRecord = errors.New("malformed account record")

// Account 账户记录
// 不存在的账户等价于 {Lamports: 0, Owner: 系统程序}
type Account struct {
	Lamports uint64
	Owner    address.Address
}

const (
	fieldAccountLamports protowire.Number = 1
	fieldAccountOwner    protowire.Number = 2
)

// Marshal protobuf 线格式
func (a *Account) Marshal() []byte {
	b := make([]byte, 0, 48)
	b = protowire.AppendTag(b, fieldAccountLamports, protowire.VarintType)
	b = protowire.AppendVarint(b, a.Lamports)
	b = protowire.AppendTag(b, fieldAccountOwner, protowire.BytesType)
	b = protowire.AppendBytes(b, a.Owner[:])
	return b
}

// UnmarshalAccount 解码账户记录，未知字段跳过
func UnmarshalAccount(b []byte) (Account, error) {
	var a Account
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Account{}, fmt.Errorf("%w: %v", ErrMalformedRecord, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldAccountLamports && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return Account{}, fmt.Errorf("%w: lamports: %v", ErrMalformedRecord, protowire.ParseError(m))
			}
			a.Lamports = v
			n = m
		case num == fieldAccountOwner && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Account{}, fmt.Errorf("%w: owner: %v", ErrMalformedRecord, protowire.ParseError(m))
			}
			owner, err := address.FromBytes(v)
			if err != nil {
				return Account{}, fmt.Errorf("%w: owner: %v", ErrMalformedRecord, err)
			}
			a.Owner = owner
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Account{}, fmt.Errorf("%w: %v", ErrMalformedRecord, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return a, nil
}
