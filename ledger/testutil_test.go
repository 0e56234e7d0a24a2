package ledger

import (
	"crypto/ed25519"
	"testing"

	"escrow/address"
	"escrow/config"

	"github.com/stretchr/testify/require"
)

type wallet struct {
	priv ed25519.PrivateKey
	addr address.Address
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	addr, err := address.FromBytes(pub)
	require.NoError(t, err)
	return wallet{priv: priv, addr: addr}
}

func newTestLedger(t *testing.T, fee uint64) *Ledger {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.InMemory = true
	cfg.Ledger.TxFee = fee
	l, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func signed(t *testing.T, msg Message, signers ...wallet) *Transaction {
	t.Helper()
	tx := &Transaction{Message: msg}
	privs := make([]ed25519.PrivateKey, len(signers))
	for i, w := range signers {
		privs[i] = w.priv
	}
	require.NoError(t, tx.Sign(privs...))
	return tx
}

func vaultOf(t *testing.T, l *Ledger, owner address.Address) address.Address {
	t.Helper()
	v, _, err := l.VaultAddress(owner)
	require.NoError(t, err)
	return v
}
