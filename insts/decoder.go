package insts

import (
	"strconv"
	"strings"
	"unicode"
)

// Immediate ranges accepted by the formats.
const (
	imm12Min  = -2048
	imm12Max  = 2047
	shamtMax  = 31
	branchMin = -4096
	branchMax = 4094
	jumpMin   = -1 << 20
	jumpMax   = 1<<20 - 2
	upperMin  = -1 << 19
	upperMax  = 1<<20 - 1
)

// Decoder decodes assembly lines into instructions.
type Decoder struct{}

// NewDecoder creates a new RISC-V instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes one assembly line loaded at addr. Operands may be separated
// by commas, spaces, or both; memory operands use the imm(reg) form.
func (d *Decoder) Decode(line string, addr uint32) (*Instruction, error) {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil, decodeErr(line, addr, "empty line")
	}
	if addr%4 != 0 {
		return nil, decodeErr(line, addr, "address is not word aligned")
	}

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil, decodeErr(line, addr, "empty line")
	}

	mnemonic := strings.ToLower(fields[0])
	op, ok := ParseOp(mnemonic)
	if !ok {
		return nil, decodeErr(line, addr, "unknown opcode %q", fields[0])
	}

	inst := &Instruction{
		Addr: addr,
		Op:   op,
		Kind: op.Kind(),
		Rd:   RegNone,
		Rs1:  RegNone,
		Rs2:  RegNone,
		Text: text,
	}

	p := operandParser{line: line, addr: addr, args: fields[1:]}

	switch inst.Kind {
	case KindR:
		p.expect(3)
		inst.Rd = p.reg(0)
		inst.Rs1 = p.reg(1)
		inst.Rs2 = p.reg(2)

	case KindI:
		d.decodeIType(inst, &p)

	case KindS:
		p.expect(2)
		inst.Rs2 = p.reg(0)
		inst.Imm, inst.Rs1 = p.mem(1)
		inst.HasImm = true

	case KindB:
		p.expect(3)
		inst.Rs1 = p.reg(0)
		inst.Rs2 = p.reg(1)
		inst.Imm = p.imm(2, branchMin, branchMax)
		inst.HasImm = true
		p.even(inst.Imm)

	case KindJ:
		p.expect(2)
		inst.Rd = p.reg(0)
		inst.Imm = p.imm(1, jumpMin, jumpMax)
		inst.HasImm = true
		p.even(inst.Imm)

	case KindU:
		p.expect(2)
		inst.Rd = p.reg(0)
		inst.Imm = p.imm(1, upperMin, upperMax)
		inst.HasImm = true
	}

	if p.err != nil {
		return nil, p.err
	}

	return inst, nil
}

// decodeIType handles the three I-type shapes: arithmetic with an
// immediate, lw with a memory operand, and jalr in either form.
func (d *Decoder) decodeIType(inst *Instruction, p *operandParser) {
	inst.HasImm = true

	switch inst.Op {
	case OpLW:
		p.expect(2)
		inst.Rd = p.reg(0)
		inst.Imm, inst.Rs1 = p.mem(1)

	case OpJALR:
		// jalr rd, imm(rs1) or jalr rd, rs1, imm
		if len(p.args) == 2 {
			inst.Rd = p.reg(0)
			inst.Imm, inst.Rs1 = p.mem(1)
			return
		}
		p.expect(3)
		inst.Rd = p.reg(0)
		inst.Rs1 = p.reg(1)
		inst.Imm = p.imm(2, imm12Min, imm12Max)

	case OpSLLI, OpSRLI, OpSRAI:
		p.expect(3)
		inst.Rd = p.reg(0)
		inst.Rs1 = p.reg(1)
		inst.Imm = p.imm(2, 0, shamtMax)

	default:
		p.expect(3)
		inst.Rd = p.reg(0)
		inst.Rs1 = p.reg(1)
		inst.Imm = p.imm(2, imm12Min, imm12Max)
	}
}

// operandParser records the first error it sees and turns every later call
// into a no-op, so the decode switch can read operands without checking
// after each one.
type operandParser struct {
	line string
	addr uint32
	args []string
	err  error
}

func (p *operandParser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = decodeErr(p.line, p.addr, format, args...)
	}
}

func (p *operandParser) expect(n int) {
	if len(p.args) != n {
		p.fail("expected %d operands, got %d", n, len(p.args))
	}
}

func (p *operandParser) arg(i int) (string, bool) {
	if p.err != nil || i >= len(p.args) {
		return "", false
	}
	return p.args[i], true
}

func (p *operandParser) reg(i int) Reg {
	s, ok := p.arg(i)
	if !ok {
		return RegNone
	}
	return p.parseReg(s)
}

func (p *operandParser) parseReg(s string) Reg {
	r, ok := ParseReg(strings.ToLower(s))
	if !ok {
		p.fail("invalid register %q", s)
		return RegNone
	}
	return r
}

func (p *operandParser) imm(i int, lo, hi int64) int32 {
	s, ok := p.arg(i)
	if !ok {
		return 0
	}
	return p.parseImm(s, lo, hi)
}

func (p *operandParser) parseImm(s string, lo, hi int64) int32 {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		p.fail("invalid immediate %q", s)
		return 0
	}
	if v < lo || v > hi {
		p.fail("immediate %d out of range [%d, %d]", v, lo, hi)
		return 0
	}
	return int32(v)
}

// mem splits an imm(reg) operand. An empty immediate, as in "(x2)", means 0.
func (p *operandParser) mem(i int) (int32, Reg) {
	s, ok := p.arg(i)
	if !ok {
		return 0, RegNone
	}

	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") || strings.Count(s, "(") != 1 {
		p.fail("malformed memory operand %q, want imm(reg)", s)
		return 0, RegNone
	}

	immText := s[:open]
	regText := s[open+1 : len(s)-1]

	var imm int32
	if immText != "" {
		imm = p.parseImm(immText, imm12Min, imm12Max)
	}
	return imm, p.parseReg(regText)
}

func (p *operandParser) even(imm int32) {
	if p.err == nil && imm%2 != 0 {
		p.fail("offset %d is not a multiple of 2", imm)
	}
}
