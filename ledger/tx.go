package ledger

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"escrow/address"

	"github.com/btcsuite/btcd/btcutil/base58"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMalformedTx      = errors.New("malformed transaction")
	ErrSignatureCount   = errors.New("signature count does not match signer count")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrNoSigningKey     = errors.New("no key for required signer")
)

// AccountMeta 交易引用的账户及权限
type AccountMeta struct {
	Address    address.Address
	IsSigner   bool
	IsWritable bool
}

// Message 待签名的指令
type Message struct {
	ProgramID address.Address
	Opcode    uint8
	Accounts  []AccountMeta
	Data      []byte
	// Nonce 区分内容相同的交易
	Nonce uint64
}

// Transaction 消息 + 签名（按 Accounts 中签名者出现的顺序）
type Transaction struct {
	Message    Message
	Signatures [][]byte
}

const (
	fieldMsgProgram  protowire.Number = 1
	fieldMsgOpcode   protowire.Number = 2
	fieldMsgAccount  protowire.Number = 3
	fieldMsgData     protowire.Number = 4
	fieldMsgNonce    protowire.Number = 5
	fieldMetaAddress protowire.Number = 1
	fieldMetaSigner  protowire.Number = 2
	fieldMetaWrite   protowire.Number = 3
	fieldTxMessage   protowire.Number = 1
	fieldTxSignature protowire.Number = 2
)

// Signers 需要签名的地址（去重，保持顺序）
func (m *Message) Signers() []address.Address {
	seen := make(map[address.Address]bool)
	var out []address.Address
	for _, a := range m.Accounts {
		if a.IsSigner && !seen[a.Address] {
			seen[a.Address] = true
			out = append(out, a.Address)
		}
	}
	return out
}

// FeePayer 第一个签名者
func (m *Message) FeePayer() (address.Address, bool) {
	s := m.Signers()
	if len(s) == 0 {
		return address.Address{}, false
	}
	return s[0], true
}

// Marshal 签名覆盖的字节
func (m *Message) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldMsgProgram, protowire.BytesType)
	b = protowire.AppendBytes(b, m.ProgramID[:])
	b = protowire.AppendTag(b, fieldMsgOpcode, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Opcode))
	for _, a := range m.Accounts {
		var meta []byte
		meta = protowire.AppendTag(meta, fieldMetaAddress, protowire.BytesType)
		meta = protowire.AppendBytes(meta, a.Address[:])
		meta = protowire.AppendTag(meta, fieldMetaSigner, protowire.VarintType)
		meta = protowire.AppendVarint(meta, protowire.EncodeBool(a.IsSigner))
		meta = protowire.AppendTag(meta, fieldMetaWrite, protowire.VarintType)
		meta = protowire.AppendVarint(meta, protowire.EncodeBool(a.IsWritable))
		b = protowire.AppendTag(b, fieldMsgAccount, protowire.BytesType)
		b = protowire.AppendBytes(b, meta)
	}
	b = protowire.AppendTag(b, fieldMsgData, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Data)
	b = protowire.AppendTag(b, fieldMsgNonce, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Nonce)
	return b
}

// Sign 用给定私钥为所有签名者签名
func (tx *Transaction) Sign(privs ...ed25519.PrivateKey) error {
	byPub := make(map[address.Address]ed25519.PrivateKey, len(privs))
	for _, k := range privs {
		pub, err := address.FromBytes(k.Public().(ed25519.PublicKey))
		if err != nil {
			return err
		}
		byPub[pub] = k
	}
	msg := tx.Message.Marshal()
	signers := tx.Message.Signers()
	sigs := make([][]byte, 0, len(signers))
	for _, s := range signers {
		k, ok := byPub[s]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoSigningKey, s)
		}
		sigs = append(sigs, ed25519.Sign(k, msg))
	}
	tx.Signatures = sigs
	return nil
}

// Verify 校验全部签名
func (tx *Transaction) Verify() error {
	signers := tx.Message.Signers()
	if len(signers) != len(tx.Signatures) {
		return fmt.Errorf("%w: %d signers, %d signatures", ErrSignatureCount, len(signers), len(tx.Signatures))
	}
	msg := tx.Message.Marshal()
	for i, s := range signers {
		if !ed25519.Verify(ed25519.PublicKey(s[:]), msg, tx.Signatures[i]) {
			return fmt.Errorf("%w: signer %s", ErrInvalidSignature, s)
		}
	}
	return nil
}

// ID 首个签名的 base58；未签名时用消息哈希
func (tx *Transaction) ID() string {
	if len(tx.Signatures) > 0 && len(tx.Signatures[0]) > 0 {
		return base58.Encode(tx.Signatures[0])
	}
	h := sha256.Sum256(tx.Message.Marshal())
	return hex.EncodeToString(h[:])
}

// Marshal 交易原文
func (tx *Transaction) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldTxMessage, protowire.BytesType)
	b = protowire.AppendBytes(b, tx.Message.Marshal())
	for _, s := range tx.Signatures {
		b = protowire.AppendTag(b, fieldTxSignature, protowire.BytesType)
		b = protowire.AppendBytes(b, s)
	}
	return b
}

// UnmarshalTransaction 解码交易原文
func UnmarshalTransaction(b []byte) (*Transaction, error) {
	tx := &Transaction{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error {
		switch {
		case num == fieldTxMessage && typ == protowire.BytesType:
			return unmarshalMessage(v, &tx.Message)
		case num == fieldTxSignature && typ == protowire.BytesType:
			tx.Signatures = append(tx.Signatures, append([]byte(nil), v...))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func unmarshalMessage(b []byte, m *Message) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error {
		switch {
		case num == fieldMsgProgram && typ == protowire.BytesType:
			a, err := address.FromBytes(v)
			if err != nil {
				return fmt.Errorf("%w: program: %v", ErrMalformedTx, err)
			}
			m.ProgramID = a
		case num == fieldMsgOpcode && typ == protowire.VarintType:
			if u > 0xff {
				return fmt.Errorf("%w: opcode %d", ErrMalformedTx, u)
			}
			m.Opcode = uint8(u)
		case num == fieldMsgAccount && typ == protowire.BytesType:
			meta, err := unmarshalMeta(v)
			if err != nil {
				return err
			}
			m.Accounts = append(m.Accounts, meta)
		case num == fieldMsgData && typ == protowire.BytesType:
			if len(v) > 0 {
				m.Data = append([]byte(nil), v...)
			}
		case num == fieldMsgNonce && typ == protowire.VarintType:
			m.Nonce = u
		}
		return nil
	})
}

func unmarshalMeta(b []byte) (AccountMeta, error) {
	var meta AccountMeta
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error {
		switch {
		case num == fieldMetaAddress && typ == protowire.BytesType:
			a, err := address.FromBytes(v)
			if err != nil {
				return fmt.Errorf("%w: account: %v", ErrMalformedTx, err)
			}
			meta.Address = a
		case num == fieldMetaSigner && typ == protowire.VarintType:
			meta.IsSigner = protowire.DecodeBool(u)
		case num == fieldMetaWrite && typ == protowire.VarintType:
			meta.IsWritable = protowire.DecodeBool(u)
		}
		return nil
	})
	return meta, err
}

// walkFields 逐个字段回调；bytes 字段给 v，varint 字段给 u，其余类型跳过
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, u uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedTx, protowire.ParseError(n))
		}
		b = b[n:]
		var (
			v []byte
			u uint64
		)
		switch typ {
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(b)
		case protowire.VarintType:
			u, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformedTx, num, protowire.ParseError(n))
		}
		b = b[n:]
		if typ == protowire.BytesType || typ == protowire.VarintType {
			if err := fn(num, typ, v, u); err != nil {
				return err
			}
		}
	}
	return nil
}
