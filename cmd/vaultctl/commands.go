package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"escrow/address"
	"escrow/ledger"
)

var errUsage = errors.New("missing or invalid flags")

// programError 交易已上链但指令失败，退出码取自程序错误
type programError struct {
	txID string
	err  error
}

func (e *programError) Error() string {
	return fmt.Sprintf("tx %s: %v", e.txID, e.err)
}

func (e *programError) Unwrap() error {
	return e.err
}

// command 先在 FlagSet 上注册参数，返回解析后执行的函数
type command func(fs *flag.FlagSet) func(l *ledger.Ledger) error

var commands = map[string]command{
	"keygen":   cmdKeygen,
	"derive":   cmdDerive,
	"airdrop":  cmdAirdrop,
	"deposit":  cmdDeposit,
	"withdraw": cmdWithdraw,
	"balance":  cmdBalance,
	"receipt":  cmdReceipt,
	"accounts": cmdAccounts,
}

func cmdKeygen(fs *flag.FlagSet) func(*ledger.Ledger) error {
	out := fs.String("out", "", "key file to write")
	return func(*ledger.Ledger) error {
		if *out == "" {
			return errUsage
		}
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*out, []byte(hex.EncodeToString(priv)+"\n"), 0600); err != nil {
			return fmt.Errorf("write key: %w", err)
		}
		addr, err := address.FromBytes(pub)
		if err != nil {
			return err
		}
		fmt.Println(addr)
		return nil
	}
}

func cmdDerive(fs *flag.FlagSet) func(*ledger.Ledger) error {
	owner := fs.String("owner", "", "owner address")
	return func(l *ledger.Ledger) error {
		o, err := parseAddr(*owner)
		if err != nil {
			return err
		}
		v, bump, err := l.VaultAddress(o)
		if err != nil {
			return err
		}
		fmt.Printf("vault: %s\nbump:  %d\n", v, bump)
		return nil
	}
}

func cmdAirdrop(fs *flag.FlagSet) func(*ledger.Ledger) error {
	to := fs.String("to", "", "recipient address")
	amount := fs.String("amount", "", "amount in SOL")
	return func(l *ledger.Ledger) error {
		addr, err := parseAddr(*to)
		if err != nil {
			return err
		}
		lamports, err := parseLamports(*amount)
		if err != nil {
			return err
		}
		return l.Airdrop(addr, lamports)
	}
}

func cmdDeposit(fs *flag.FlagSet) func(*ledger.Ledger) error {
	keyFile := fs.String("key", "", "owner key file")
	amount := fs.String("amount", "", "amount in SOL")
	nonce := fs.Uint64("nonce", 0, "transaction nonce (default: current time)")
	return func(l *ledger.Ledger) error {
		priv, owner, err := loadKey(*keyFile)
		if err != nil {
			return err
		}
		lamports, err := ledger.ParseAmount(*amount)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		v, _, err := l.VaultAddress(owner)
		if err != nil {
			return err
		}
		msg := ledger.NewDepositMessage(l.ProgramID(), owner, v, lamports, pickNonce(*nonce))
		return submit(l, msg, priv)
	}
}

func cmdWithdraw(fs *flag.FlagSet) func(*ledger.Ledger) error {
	keyFile := fs.String("key", "", "owner key file")
	nonce := fs.Uint64("nonce", 0, "transaction nonce (default: current time)")
	return func(l *ledger.Ledger) error {
		priv, owner, err := loadKey(*keyFile)
		if err != nil {
			return err
		}
		v, _, err := l.VaultAddress(owner)
		if err != nil {
			return err
		}
		msg := ledger.NewWithdrawMessage(l.ProgramID(), owner, v, pickNonce(*nonce))
		return submit(l, msg, priv)
	}
}

func cmdBalance(fs *flag.FlagSet) func(*ledger.Ledger) error {
	addrFlag := fs.String("addr", "", "account address")
	return func(l *ledger.Ledger) error {
		addr, err := parseAddr(*addrFlag)
		if err != nil {
			return err
		}
		bal, err := l.Balance(addr)
		if err != nil {
			return err
		}
		fmt.Printf("%s SOL (%d lamports)\n", ledger.FormatAmount(bal), bal)
		return nil
	}
}

func cmdReceipt(fs *flag.FlagSet) func(*ledger.Ledger) error {
	id := fs.String("id", "", "transaction id")
	return func(l *ledger.Ledger) error {
		if *id == "" {
			return errUsage
		}
		r, err := l.Receipt(*id)
		if err != nil {
			return err
		}
		printReceipt(r)
		return nil
	}
}

func cmdAccounts(fs *flag.FlagSet) func(*ledger.Ledger) error {
	return func(l *ledger.Ledger) error {
		list, err := l.Accounts()
		if err != nil {
			return err
		}
		for _, e := range list {
			fmt.Printf("%-44s %20d  owner=%s\n", e.Address, e.Account.Lamports, e.Account.Owner.Short())
		}
		return nil
	}
}

// submit 签名并执行交易
func submit(l *ledger.Ledger, msg ledger.Message, priv ed25519.PrivateKey) error {
	tx := &ledger.Transaction{Message: msg}
	if err := tx.Sign(priv); err != nil {
		return err
	}
	r, err := l.Execute(tx)
	if r == nil {
		return err
	}
	printReceipt(r)
	if err != nil {
		return &programError{txID: r.TxID, err: err}
	}
	return nil
}

func printReceipt(r *ledger.Receipt) {
	fmt.Printf("tx:       %s\nstatus:   %s\n", r.TxID, r.Status)
	if r.Error != "" {
		fmt.Printf("error:    %s (code %d)\n", r.Error, r.ExitCode)
	}
	fmt.Printf("fee:      %d lamports\nwrites:   %d\n", r.Fee, r.WriteCount)
}

func parseAddr(s string) (address.Address, error) {
	if s == "" {
		return address.Address{}, errUsage
	}
	a, err := address.Parse(s)
	if err != nil {
		return address.Address{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	return a, nil
}

func parseLamports(s string) (uint64, error) {
	if s == "" {
		return 0, errUsage
	}
	v, err := ledger.ParseAmount(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUsage, err)
	}
	return v, nil
}

func loadKey(path string) (ed25519.PrivateKey, address.Address, error) {
	if path == "" {
		return nil, address.Address{}, errUsage
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, address.Address{}, fmt.Errorf("read key: %w", err)
	}
	b, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil || len(b) != ed25519.PrivateKeySize {
		return nil, address.Address{}, fmt.Errorf("key file %s is not a hex ed25519 private key", path)
	}
	priv := ed25519.PrivateKey(b)
	addr, err := address.FromBytes(priv.Public().(ed25519.PublicKey))
	return priv, addr, err
}

func pickNonce(n uint64) uint64 {
	if n != 0 {
		return n
	}
	return uint64(time.Now().UnixNano())
}
