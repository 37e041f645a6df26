package insts_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvpipe/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("R-type", func() {
		It("should decode add x3, x1, x2", func() {
			inst, err := decoder.Decode("add x3, x1, x2", 4)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Kind).To(Equal(insts.KindR))
			Expect(inst.Rd).To(Equal(insts.Reg(3)))
			Expect(inst.Rs1).To(Equal(insts.Reg(1)))
			Expect(inst.Rs2).To(Equal(insts.Reg(2)))
			Expect(inst.HasImm).To(BeFalse())
			Expect(inst.Addr).To(Equal(uint32(4)))
		})

		It("should accept space separated operands and upper case", func() {
			inst, err := decoder.Decode("  SUB x5 x6   x7 ", 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Rd).To(Equal(insts.Reg(5)))
			Expect(inst.Text).To(Equal("SUB x5 x6   x7"))
		})

		It("should accept ABI register names", func() {
			inst, err := decoder.Decode("xor a0, t0, s1", 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Rd).To(Equal(insts.Reg(10)))
			Expect(inst.Rs1).To(Equal(insts.Reg(5)))
			Expect(inst.Rs2).To(Equal(insts.Reg(9)))
		})
	})

	Describe("I-type", func() {
		It("should decode addi with a negative immediate", func() {
			inst, err := decoder.Decode("addi x1, x2, -10", 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rd).To(Equal(insts.Reg(1)))
			Expect(inst.Rs1).To(Equal(insts.Reg(2)))
			Expect(inst.Rs2).To(Equal(insts.RegNone))
			Expect(inst.Imm).To(Equal(int32(-10)))
		})

		It("should decode hex immediates", func() {
			inst, err := decoder.Decode("ori x1, x0, 0x7f", 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Imm).To(Equal(int32(0x7f)))
		})

		It("should decode lw with a memory operand", func() {
			inst, err := decoder.Decode("lw x2, 8(x1)", 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.IsLoad()).To(BeTrue())
			Expect(inst.Rd).To(Equal(insts.Reg(2)))
			Expect(inst.Rs1).To(Equal(insts.Reg(1)))
			Expect(inst.Imm).To(Equal(int32(8)))
		})

		It("should treat an empty offset as zero", func() {
			inst, err := decoder.Decode("lw x2, (sp)", 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Imm).To(BeZero())
			Expect(inst.Rs1).To(Equal(insts.Reg(2)))
		})

		It("should decode both jalr forms", func() {
			a, err := decoder.Decode("jalr x1, 4(x5)", 0)
			Expect(err).NotTo(HaveOccurred())
			b, err := decoder.Decode("jalr x1, x5, 4", 0)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Rd).To(Equal(b.Rd))
			Expect(a.Rs1).To(Equal(b.Rs1))
			Expect(a.Imm).To(Equal(b.Imm))
			Expect(a.IsJump()).To(BeTrue())
		})

		It("should reject out of range shift amounts", func() {
			_, err := decoder.Decode("slli x1, x1, 32", 0)
			Expect(err).To(MatchError(insts.ErrDecode))
		})

		It("should reject 12-bit overflow", func() {
			_, err := decoder.Decode("addi x1, x1, 2048", 0)
			Expect(err).To(MatchError(insts.ErrDecode))

			_, err = decoder.Decode("addi x1, x1, -2048", 0)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("S-type", func() {
		It("should decode sw", func() {
			inst, err := decoder.Decode("sw x1, -4(x2)", 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Rd).To(Equal(insts.RegNone))
			Expect(inst.Rs1).To(Equal(insts.Reg(2)))
			Expect(inst.Rs2).To(Equal(insts.Reg(1)))
			Expect(inst.Imm).To(Equal(int32(-4)))
			Expect(inst.WritesReg()).To(BeFalse())
		})
	})

	Describe("B-type and J-type", func() {
		It("should decode beq", func() {
			inst, err := decoder.Decode("beq x1, x2, 8", 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.IsBranch()).To(BeTrue())
			Expect(inst.Rs1).To(Equal(insts.Reg(1)))
			Expect(inst.Rs2).To(Equal(insts.Reg(2)))
			Expect(inst.Imm).To(Equal(int32(8)))
		})

		It("should reject odd branch offsets", func() {
			_, err := decoder.Decode("bne x1, x2, 3", 0)
			Expect(err).To(MatchError(insts.ErrDecode))
		})

		It("should decode jal", func() {
			inst, err := decoder.Decode("jal x1, -8", 12)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Kind).To(Equal(insts.KindJ))
			Expect(inst.IsJump()).To(BeTrue())
			Expect(inst.IsBranch()).To(BeFalse())
			Expect(inst.Imm).To(Equal(int32(-8)))
		})
	})

	Describe("U-type", func() {
		It("should decode lui", func() {
			inst, err := decoder.Decode("lui x5, 0x12345", 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Imm).To(Equal(int32(0x12345)))
		})
	})

	Describe("errors", func() {
		DescribeTable("malformed lines",
			func(line string) {
				_, err := decoder.Decode(line, 0)

				Expect(err).To(MatchError(insts.ErrDecode))
				var decErr *insts.DecodeError
				Expect(errors.As(err, &decErr)).To(BeTrue())
				Expect(decErr.Line).To(Equal(line))
			},
			Entry("unknown opcode", "mul x1, x2, x3"),
			Entry("nop is not an opcode", "nop"),
			Entry("missing operand", "add x1, x2"),
			Entry("extra operand", "addi x1, x2, 3, 4"),
			Entry("bad register", "add x1, x2, x40"),
			Entry("bad immediate", "addi x1, x2, ten"),
			Entry("bad memory operand", "lw x1, 4[x2]"),
			Entry("unclosed paren", "sw x1, 4(x2"),
			Entry("empty", "   "),
			Entry("only a comma", ","),
			Entry("only separators", " , "),
		)

		It("should reject unaligned addresses", func() {
			_, err := decoder.Decode("add x1, x2, x3", 2)
			Expect(err).To(MatchError(insts.ErrDecode))
		})
	})
})
