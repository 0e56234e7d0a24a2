// address/derive.go
// 程序派生地址（PDA）：由种子和程序 ID 计算出一个没有私钥的地址

package address

import (
	"crypto/sha256"
	"errors"

	"go.dedis.ch/kyber/v3/group/edwards25519"
)

const (
	// MaxSeeds 单次派生允许的最大种子数（含 bump）
	MaxSeeds = 16
	// MaxSeedLen 单个种子最大长度
	MaxSeedLen = 32
	// pdaMarker 派生哈希的结尾标记
	pdaMarker = "ProgramDerivedAddress"
)

var (
	// ErrMaxSeedLengthExceeded 种子数量或单个种子长度超限
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	// ErrInvalidSeeds 派生结果落在曲线上（存在私钥），不可作为 PDA
	ErrInvalidSeeds = errors.New("provided seeds do not result in a valid address")
	// ErrNoViableBump 所有 bump 都落在曲线上
	ErrNoViableBump = errors.New("unable to find a viable program address bump seed")
)

var curve = edwards25519.NewBlakeSHA256Ed25519()

// IsOnCurve 判断 32 字节能否解码为 ed25519 点
func IsOnCurve(b []byte) bool {
	if len(b) != Size {
		return false
	}
	p := curve.Point()
	return p.UnmarshalBinary(b) == nil
}

// CreateProgramAddress sha256(seeds || programID || "ProgramDerivedAddress")
// 结果必须不在曲线上
func CreateProgramAddress(seeds [][]byte, programID Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, ErrMaxSeedLengthExceeded
	}
	h := sha256.New()
	for _, s := range seeds {
		if len(s) > MaxSeedLen {
			return Address{}, ErrMaxSeedLengthExceeded
		}
		h.Write(s)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var out Address
	copy(out[:], h.Sum(nil))
	if IsOnCurve(out[:]) {
		return Address{}, ErrInvalidSeeds
	}
	return out, nil
}

// FindProgramAddress 从 255 往下尝试 bump，第一个不在曲线上的结果就是规范地址
func FindProgramAddress(seeds [][]byte, programID Address) (Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Address{}, 0, ErrMaxSeedLengthExceeded
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	bump := []byte{255}
	for ; bump[0] > 0; bump[0]-- {
		withBump[len(seeds)] = bump
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, bump[0], nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}
