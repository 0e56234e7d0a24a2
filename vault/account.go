package vault

import "escrow/address"

// AccountHandle 运行环境提供的账户视图
type AccountHandle interface {
	Address() address.Address
	IsSigner() bool
	// Owner 账户的控制方（程序 ID）
	Owner() address.Address
	Lamports() uint64
}

// Seed 派生种子
type Seed []byte

// SigningProof 无私钥账户的签名凭证：派生该地址所用的全部种子（含 bump）
type SigningProof struct {
	Seeds []Seed
}

// NewSigningProof 按顺序拷贝种子
func NewSigningProof(seeds ...[]byte) SigningProof {
	p := SigningProof{Seeds: make([]Seed, len(seeds))}
	for i, s := range seeds {
		p.Seeds[i] = append(Seed(nil), s...)
	}
	return p
}

// Raw 转成派生函数需要的形式
func (p SigningProof) Raw() [][]byte {
	out := make([][]byte, len(p.Seeds))
	for i, s := range p.Seeds {
		out[i] = s
	}
	return out
}

// Transferer 外部转账能力
type Transferer interface {
	// Transfer from 本身是已验证的签名者
	Transfer(from, to AccountHandle, lamports uint64) error
	// TransferSigned from 是派生地址，用种子凭证代签
	TransferSigned(from, to AccountHandle, lamports uint64, proofs ...SigningProof) error
}
