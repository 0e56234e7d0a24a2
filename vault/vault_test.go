package vault

import (
	"crypto/sha256"
	"errors"
	"testing"

	"escrow/address"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== Mock 实现 ==========

type mockAccount struct {
	addr     address.Address
	signer   bool
	owner    address.Address
	lamports uint64
}

func (a *mockAccount) Address() address.Address { return a.addr }
func (a *mockAccount) IsSigner() bool           { return a.signer }
func (a *mockAccount) Owner() address.Address   { return a.owner }
func (a *mockAccount) Lamports() uint64         { return a.lamports }

type transferCall struct {
	from, to address.Address
	lamports uint64
	proofs   []SigningProof
	signed   bool
}

// mockTransferer 直接改 mockAccount 的余额
type mockTransferer struct {
	calls []transferCall
	err   error
}

func (m *mockTransferer) Transfer(from, to AccountHandle, lamports uint64) error {
	m.calls = append(m.calls, transferCall{from: from.Address(), to: to.Address(), lamports: lamports})
	return m.apply(from, to, lamports)
}

func (m *mockTransferer) TransferSigned(from, to AccountHandle, lamports uint64, proofs ...SigningProof) error {
	m.calls = append(m.calls, transferCall{from: from.Address(), to: to.Address(), lamports: lamports, proofs: proofs, signed: true})
	return m.apply(from, to, lamports)
}

func (m *mockTransferer) apply(from, to AccountHandle, lamports uint64) error {
	if m.err != nil {
		return m.err
	}
	from.(*mockAccount).lamports -= lamports
	to.(*mockAccount).lamports += lamports
	return nil
}

// ========== 测试夹具 ==========

var (
	testProgram = address.Address(sha256.Sum256([]byte("vault-program")))
	ownerO1     = address.Address(sha256.Sum256([]byte("O1")))
	ownerO2     = address.Address(sha256.Sum256([]byte("O2")))
)

type fixture struct {
	program *Program
	deriver *Deriver
	owner   *mockAccount
	vault   *mockAccount
	system  *mockAccount
	xfer    *mockTransferer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d, err := NewDeriver(testProgram, DefaultSeedLabel, 16)
	require.NoError(t, err)
	vaultAddr, _, err := d.Derive(ownerO1)
	require.NoError(t, err)
	return &fixture{
		program: NewProgram(d, address.SystemProgramID),
		deriver: d,
		owner:   &mockAccount{addr: ownerO1, signer: true, owner: address.SystemProgramID, lamports: 10_000_000},
		vault:   &mockAccount{addr: vaultAddr, owner: address.SystemProgramID},
		system:  &mockAccount{addr: address.SystemProgramID},
		xfer:    &mockTransferer{},
	}
}

func (f *fixture) accounts() []AccountHandle {
	return []AccountHandle{f.owner, f.vault, f.system}
}

func (f *fixture) deposit(amount uint64) error {
	return f.program.Process(OpDeposit, f.accounts(), EncodeDepositData(amount), f.xfer)
}

func (f *fixture) withdraw() error {
	return f.program.Process(OpWithdraw, f.accounts(), nil, f.xfer)
}

// ========== 派生 ==========

func TestDeriveDeterministic(t *testing.T) {
	cached, err := NewDeriver(testProgram, DefaultSeedLabel, 4)
	require.NoError(t, err)
	uncached, err := NewDeriver(testProgram, "", 0)
	require.NoError(t, err)

	for _, owner := range []address.Address{ownerO1, ownerO2} {
		a1, b1, err := cached.Derive(owner)
		require.NoError(t, err)
		a2, b2, err := cached.Derive(owner)
		require.NoError(t, err)
		a3, b3, err := uncached.Derive(owner)
		require.NoError(t, err)

		assert.Equal(t, a1, a2)
		assert.Equal(t, a1, a3)
		assert.Equal(t, b1, b2)
		assert.Equal(t, b1, b3)
		assert.False(t, address.IsOnCurve(a1[:]))

		want, wantBump, err := address.FindProgramAddress([][]byte{[]byte("vault"), owner[:]}, testProgram)
		require.NoError(t, err)
		assert.Equal(t, want, a1)
		assert.Equal(t, wantBump, b1)
	}

	a1, _, _ := cached.Derive(ownerO1)
	a2, _, _ := cached.Derive(ownerO2)
	assert.NotEqual(t, a1, a2)
}

func TestProofRebuildsVaultAddress(t *testing.T) {
	d, err := NewDeriver(testProgram, DefaultSeedLabel, 0)
	require.NoError(t, err)
	vaultAddr, bump, err := d.Derive(ownerO1)
	require.NoError(t, err)

	proof := d.Proof(ownerO1, bump)
	require.Len(t, proof.Seeds, 3)
	assert.Equal(t, Seed("vault"), proof.Seeds[0])
	assert.Equal(t, Seed(ownerO1[:]), proof.Seeds[1])
	assert.Equal(t, Seed{bump}, proof.Seeds[2])

	got, err := address.CreateProgramAddress(proof.Raw(), testProgram)
	require.NoError(t, err)
	assert.Equal(t, vaultAddr, got)

	// 换了 owner 的凭证重建不出同一个地址
	forged := NewSigningProof([]byte("vault"), ownerO2[:], []byte{bump})
	other, err := address.CreateProgramAddress(forged.Raw(), testProgram)
	if err == nil {
		assert.NotEqual(t, vaultAddr, other)
	}
}

// ========== 指令数据 ==========

func TestParseDepositData(t *testing.T) {
	amount, err := ParseDepositData(EncodeDepositData(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), amount)

	amount, err = ParseDepositData([]byte{1, 0, 0, 0, 0, 0, 0, 0x80})
	require.NoError(t, err)
	assert.Equal(t, uint64(1)|uint64(0x80)<<56, amount)

	_, err = ParseDepositData(make([]byte, 7))
	assert.Equal(t, ErrMalformedInstructionData, err)
	_, err = ParseDepositData(make([]byte, 9))
	assert.Equal(t, ErrMalformedInstructionData, err)
	_, err = ParseDepositData(nil)
	assert.Equal(t, ErrMalformedInstructionData, err)
	_, err = ParseDepositData(make([]byte, 8))
	assert.Equal(t, ErrZeroAmount, err)
}

// ========== 存款 ==========

func TestDepositScenarioA(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.deposit(1_000_000))

	assert.Equal(t, uint64(1_000_000), f.vault.lamports)
	assert.Equal(t, uint64(9_000_000), f.owner.lamports)
	require.Len(t, f.xfer.calls, 1)
	call := f.xfer.calls[0]
	assert.False(t, call.signed, "owner is a real signer, no proof needed")
	assert.Equal(t, ownerO1, call.from)
	assert.Equal(t, f.vault.addr, call.to)
	assert.Equal(t, uint64(1_000_000), call.lamports)
}

func TestDepositPreconditions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(f *fixture) ([]AccountHandle, []byte)
		want   Error
	}{
		{"too few accounts", func(f *fixture) ([]AccountHandle, []byte) {
			return []AccountHandle{f.owner, f.vault}, EncodeDepositData(1)
		}, ErrMissingAccounts},
		{"too many accounts", func(f *fixture) ([]AccountHandle, []byte) {
			return append(f.accounts(), f.system), EncodeDepositData(1)
		}, ErrMissingAccounts},
		{"owner not signer", func(f *fixture) ([]AccountHandle, []byte) {
			f.owner.signer = false
			return f.accounts(), EncodeDepositData(1)
		}, ErrUnauthorized},
		{"vault wrong authority", func(f *fixture) ([]AccountHandle, []byte) {
			f.vault.owner = testProgram
			return f.accounts(), EncodeDepositData(1)
		}, ErrInvalidVaultOwner},
		{"vault not empty", func(f *fixture) ([]AccountHandle, []byte) {
			f.vault.lamports = 1
			return f.accounts(), EncodeDepositData(1)
		}, ErrVaultNotEmpty},
		{"vault address mismatch", func(f *fixture) ([]AccountHandle, []byte) {
			other, _, _ := f.deriver.Derive(ownerO2)
			f.vault.addr = other
			return f.accounts(), EncodeDepositData(1)
		}, ErrVaultAddressMismatch},
		{"payload too short", func(f *fixture) ([]AccountHandle, []byte) {
			return f.accounts(), make([]byte, 7)
		}, ErrMalformedInstructionData},
		{"zero amount", func(f *fixture) ([]AccountHandle, []byte) {
			return f.accounts(), EncodeDepositData(0)
		}, ErrZeroAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			accs, data := tc.mutate(f)
			vaultBefore := f.vault.lamports

			err := f.program.Process(OpDeposit, accs, data, f.xfer)
			assert.Equal(t, tc.want, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.xfer.calls, "no value may move on a rejected deposit")
			assert.Equal(t, vaultBefore, f.vault.lamports)
		})
	}
}

func TestDepositFirstFailingCheckWins(t *testing.T) {
	f := newFixture(t)
	f.owner.signer = false
	f.vault.lamports = 5
	err := f.program.Process(OpDeposit, f.accounts(), make([]byte, 3), f.xfer)
	assert.Equal(t, ErrUnauthorized, err)

	f = newFixture(t)
	f.vault.lamports = 5
	err = f.program.Process(OpDeposit, f.accounts(), EncodeDepositData(0), f.xfer)
	assert.Equal(t, ErrVaultNotEmpty, err)
}

func TestDepositTwiceFails(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.deposit(500))
	assert.Equal(t, ErrVaultNotEmpty, f.deposit(500))
	assert.Equal(t, uint64(500), f.vault.lamports)
}

func TestDepositScenarioBAndC(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, ErrZeroAmount, f.deposit(0))
	assert.Equal(t, uint64(0), f.vault.lamports)

	err := f.program.Process(OpDeposit, f.accounts(), []byte{1, 2, 3, 4, 5, 6, 7}, f.xfer)
	assert.Equal(t, ErrMalformedInstructionData, err)
}

func TestScenarioDCrossOwnerVault(t *testing.T) {
	f := newFixture(t)
	o2Vault, _, err := f.deriver.Derive(ownerO2)
	require.NoError(t, err)
	f.vault.addr = o2Vault

	assert.Equal(t, ErrVaultAddressMismatch, f.deposit(1_000))

	f.vault.lamports = 1_000
	assert.Equal(t, ErrVaultAddressMismatch, f.withdraw())
	assert.Empty(t, f.xfer.calls)
}

func TestTransferFailurePropagated(t *testing.T) {
	boom := errors.New("transfer primitive failed")

	f := newFixture(t)
	f.xfer.err = boom
	assert.Same(t, boom, f.deposit(10))

	f = newFixture(t)
	f.vault.lamports = 10
	f.xfer.err = boom
	assert.Same(t, boom, f.withdraw())
}

// ========== 取款 ==========

func TestWithdrawMovesEntireBalance(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.deposit(1_000_000))
	require.NoError(t, f.withdraw())

	assert.Equal(t, uint64(0), f.vault.lamports)
	assert.Equal(t, uint64(10_000_000), f.owner.lamports)

	require.Len(t, f.xfer.calls, 2)
	call := f.xfer.calls[1]
	assert.True(t, call.signed)
	assert.Equal(t, f.vault.addr, call.from)
	assert.Equal(t, ownerO1, call.to)
	assert.Equal(t, uint64(1_000_000), call.lamports)
	require.Len(t, call.proofs, 1)

	pda, err := address.CreateProgramAddress(call.proofs[0].Raw(), testProgram)
	require.NoError(t, err)
	assert.Equal(t, f.vault.addr, pda)
}

func TestWithdrawPreconditions(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(f *fixture) []AccountHandle
		want   Error
	}{
		{"missing accounts", func(f *fixture) []AccountHandle {
			return []AccountHandle{f.owner}
		}, ErrMissingAccounts},
		{"owner not signer", func(f *fixture) []AccountHandle {
			f.owner.signer = false
			return f.accounts()
		}, ErrUnauthorized},
		{"vault wrong authority", func(f *fixture) []AccountHandle {
			f.vault.owner = ownerO2
			return f.accounts()
		}, ErrInvalidVaultOwner},
		{"vault empty", func(f *fixture) []AccountHandle {
			f.vault.lamports = 0
			return f.accounts()
		}, ErrVaultEmpty},
		{"vault address mismatch", func(f *fixture) []AccountHandle {
			f.vault.addr = ownerO2
			return f.accounts()
		}, ErrVaultAddressMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.vault.lamports = 42
			accs := tc.mutate(f)
			before := f.vault.lamports

			err := f.program.Process(OpWithdraw, accs, nil, f.xfer)
			assert.Equal(t, tc.want, err)
			assert.Empty(t, f.xfer.calls)
			assert.Equal(t, before, f.vault.lamports)
		})
	}
}

func TestWithdrawScenarioE(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, ErrVaultEmpty, f.withdraw())
}

func TestVaultStateMachine(t *testing.T) {
	f := newFixture(t)
	// Empty -> Funded -> Empty -> Funded
	assert.Equal(t, ErrVaultEmpty, f.withdraw())
	require.NoError(t, f.deposit(7))
	assert.Equal(t, ErrVaultNotEmpty, f.deposit(7))
	require.NoError(t, f.withdraw())
	assert.Equal(t, ErrVaultEmpty, f.withdraw())
	require.NoError(t, f.deposit(9))
	assert.Equal(t, uint64(9), f.vault.lamports)
}

// ========== 分发 ==========

func TestUnknownOpcode(t *testing.T) {
	f := newFixture(t)
	err := f.program.Process(7, f.accounts(), nil, f.xfer)
	assert.ErrorIs(t, err, ErrUnknownInstruction)
	assert.Equal(t, ExitUnknownOpcode, ExitCode(err))
}

func TestRegisterDuplicateOpcode(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.program.register(&depositHandler{f.program}))
	assert.Error(t, f.program.register(nil))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(ErrMissingAccounts))
	assert.Equal(t, 8, ExitCode(ErrZeroAmount))
	assert.Equal(t, ExitExternalFailure, ExitCode(errors.New("opaque")))

	seen := make(map[uint32]bool)
	for e := ErrMissingAccounts; e <= ErrZeroAmount; e++ {
		assert.False(t, seen[e.Code()], "duplicate code %d", e.Code())
		seen[e.Code()] = true
		assert.NotEqual(t, "unknown vault error", e.Error())
	}
	assert.Equal(t, "unknown vault error", Error(99).Error())
}

func TestDeriveKnownVectors(t *testing.T) {
	program := address.MustParse("BLJjGDVyvhTxqkP8AWiqypAHoA7LcE8b3xXETmG2FaNi")
	d, err := NewDeriver(program, DefaultSeedLabel, 0)
	require.NoError(t, err)

	cases := []struct {
		owner address.Address
		vault string
		bump  uint8
	}{
		{ownerO1, "8X87TFhXqYKMrmjNn2ExDohrMPHs37bRJc4Cgah8pF8H", 255},
		// 255..253 都落在曲线上
		{ownerO2, "2Dts21VgYVHmg9qLmyr5GUpwoWZPZpu2hd43MYJzRDSJ", 252},
	}
	for _, tc := range cases {
		addr, bump, err := d.Derive(tc.owner)
		require.NoError(t, err)
		assert.Equal(t, tc.vault, addr.String())
		assert.Equal(t, tc.bump, bump)
	}
	assert.Equal(t, "78i2jgeXCRz4HpaTuFTcL5Yye6i1paDkkJuFCQDxuzsG", ownerO1.String())
}
