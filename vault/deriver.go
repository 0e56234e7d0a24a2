package vault

import (
	"fmt"

	"escrow/address"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultSeedLabel 金库地址的固定种子前缀
const DefaultSeedLabel = "vault"

type derived struct {
	addr address.Address
	bump uint8
}

// Deriver 计算 owner 对应的金库地址，结果按 owner 缓存
type Deriver struct {
	programID address.Address
	label     []byte
	cache     *lru.Cache
}

// NewDeriver cacheSize <= 0 时不缓存
func NewDeriver(programID address.Address, label string, cacheSize int) (*Deriver, error) {
	if label == "" {
		label = DefaultSeedLabel
	}
	d := &Deriver{programID: programID, label: []byte(label)}
	if cacheSize > 0 {
		c, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create derive cache: %w", err)
		}
		d.cache = c
	}
	return d, nil
}

func (d *Deriver) ProgramID() address.Address {
	return d.programID
}

// Seeds 不含 bump 的种子列表
func (d *Deriver) Seeds(owner address.Address) [][]byte {
	return [][]byte{d.label, owner.Bytes()}
}

// Derive 返回 (金库地址, 规范 bump)
func (d *Deriver) Derive(owner address.Address) (address.Address, uint8, error) {
	if d.cache != nil {
		if v, ok := d.cache.Get(owner); ok {
			r := v.(derived)
			return r.addr, r.bump, nil
		}
	}
	addr, bump, err := address.FindProgramAddress(d.Seeds(owner), d.programID)
	if err != nil {
		return address.Address{}, 0, fmt.Errorf("derive vault for %s: %w", owner, err)
	}
	if d.cache != nil {
		d.cache.Add(owner, derived{addr: addr, bump: bump})
	}
	return addr, bump, nil
}

// Proof 重建金库地址的签名凭证
func (d *Deriver) Proof(owner address.Address, bump uint8) SigningProof {
	return NewSigningProof(d.label, owner.Bytes(), []byte{bump})
}
