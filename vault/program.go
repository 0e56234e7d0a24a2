package vault

import (
	"errors"
	"fmt"

	"escrow/address"
	"escrow/logs"
)

// 指令操作码
const (
	OpDeposit  uint8 = 0
	OpWithdraw uint8 = 1
)

// InstructionHandler 单个指令的处理器
type InstructionHandler interface {
	Opcode() uint8
	Name() string
	Process(accounts []AccountHandle, data []byte, t Transferer) error
}

// Program 金库程序：按操作码把指令路由到处理器
type Program struct {
	handlers map[uint8]InstructionHandler
	deriver  *Deriver
	custody  address.Address
}

// NewProgram 注册存款/取款两个处理器
func NewProgram(d *Deriver, custody address.Address) *Program {
	p := &Program{
		handlers: make(map[uint8]InstructionHandler),
		deriver:  d,
		custody:  custody,
	}
	// 内置处理器的操作码固定不会冲突
	_ = p.register(&depositHandler{p})
	_ = p.register(&withdrawHandler{p})
	return p
}

// register 仅在构造时调用，之后 handlers 只读
func (p *Program) register(h InstructionHandler) error {
	if h == nil {
		return errors.New("nil handler")
	}
	if _, ok := p.handlers[h.Opcode()]; ok {
		return fmt.Errorf("duplicate handler opcode: %d", h.Opcode())
	}
	p.handlers[h.Opcode()] = h
	return nil
}

func (p *Program) ID() address.Address {
	return p.deriver.ProgramID()
}

func (p *Program) Deriver() *Deriver {
	return p.deriver
}

// Process 入口
func (p *Program) Process(opcode uint8, accounts []AccountHandle, data []byte, t Transferer) error {
	h, ok := p.handlers[opcode]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownInstruction, opcode)
	}

	if err := h.Process(accounts, data, t); err != nil {
		logs.Verbose("[vault] %s rejected: %v", h.Name(), err)
		return err
	}
	logs.Debug("[vault] %s ok", h.Name())
	return nil
}

type depositHandler struct{ p *Program }

func (h *depositHandler) Opcode() uint8 { return OpDeposit }
func (h *depositHandler) Name() string  { return "deposit" }

func (h *depositHandler) Process(accounts []AccountHandle, data []byte, t Transferer) error {
	dep, err := NewDeposit(accounts, data, h.p.deriver, h.p.custody)
	if err != nil {
		return err
	}
	return dep.Process(t)
}

type withdrawHandler struct{ p *Program }

func (h *withdrawHandler) Opcode() uint8 { return OpWithdraw }
func (h *withdrawHandler) Name() string  { return "withdraw" }

func (h *withdrawHandler) Process(accounts []AccountHandle, _ []byte, t Transferer) error {
	w, err := NewWithdraw(accounts, h.p.deriver, h.p.custody)
	if err != nil {
		return err
	}
	return w.Process(t)
}
