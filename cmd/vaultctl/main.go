package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"escrow/config"
	"escrow/ledger"
	"escrow/logs"
	"escrow/vault"
)

// 命令行自身的退出码，与 vault.ExitCode 的取值区间不重叠
const (
	exitError = 102
	exitUsage = 103
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: vaultctl [global flags] <command> [flags]

commands:
  keygen    -out <file>                  生成 ed25519 密钥
  derive    -owner <address>             计算金库地址
  airdrop   -to <address> -amount <sol>  增发（测试用）
  deposit   -key <file> -amount <sol>    存入金库
  withdraw  -key <file>                  全额取回
  balance   -addr <address>              查询余额
  receipt   -id <txid>                   查询回执
  accounts                               列出账户

global flags:
`)
	flag.PrintDefaults()
}

func main() {
	// 1. 解析全局参数
	var (
		configFile = flag.String("config", "", "config file path (JSON)")
		dataPath   = flag.String("data", "", "database directory, overrides config")
		logLevel   = flag.String("log", "", "log level: trace|debug|verbose|info|warn|error")
	)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(exitUsage)
	}

	// 2. 加载配置
	cfg, err := loadConfig(*configFile, *dataPath, *logLevel)
	if err != nil {
		logs.Error("load config: %v", err)
		os.Exit(exitError)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	os.Exit(run(cfg, cmd, args))
}

func loadConfig(path, dataPath, level string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path != "" {
		logs.Info("Loading config from file: %s", path)
		c, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if dataPath != "" {
		cfg.Database.Path = dataPath
	}
	if level != "" {
		cfg.Log.Level = level
	}
	lv, err := logs.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logs.SetLevel(lv)
	if cfg.Log.Tag != "" {
		logs.SetTag(cfg.Log.Tag)
	}
	return cfg, cfg.Validate()
}

// run 返回进程退出码
func run(cfg *config.Config, cmd string, args []string) int {
	c, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		return exitUsage
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	exec := c(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	var l *ledger.Ledger
	if cmd != "keygen" {
		var err error
		l, err = ledger.Open(cfg)
		if err != nil {
			logs.Error("open ledger: %v", err)
			return exitError
		}
		defer l.Close()
	}

	err := exec(l)
	var pe *programError
	switch {
	case err == nil:
		return vault.ExitOK
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return exitUsage
	case errors.As(err, &pe):
		fmt.Fprintf(os.Stderr, "instruction failed: %v\n", pe.err)
		return vault.ExitCode(pe.err)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
}
