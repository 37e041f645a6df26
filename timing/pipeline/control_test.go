package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvpipe/insts"
	"github.com/sarchlab/rvpipe/timing/pipeline"
)

var _ = Describe("ControlUnit", func() {
	var cu *pipeline.ControlUnit

	BeforeEach(func() {
		cu = pipeline.NewControlUnit()
	})

	It("should map every opcode", func() {
		for i := 0; i < insts.NumOps; i++ {
			_, err := cu.Signals(insts.Op(i))
			Expect(err).NotTo(HaveOccurred(), "op %s", insts.Op(i))
		}
	})

	It("should generate store signals", func() {
		s, err := cu.GenerateSignals("sw")

		Expect(err).NotTo(HaveOccurred())
		Expect(s.MemWrite).To(BeTrue())
		Expect(s.RegWrite).To(BeFalse())
		Expect(s.ALUSrc).To(BeTrue())
		Expect(s.ALUOp).To(Equal(pipeline.ALUAdd))
	})

	It("should generate load signals", func() {
		s, err := cu.GenerateSignals("lw")

		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(pipeline.ControlSignals{
			RegWrite: true,
			MemRead:  true,
			MemToReg: true,
			ALUSrc:   true,
			ALUOp:    pipeline.ALUAdd,
		}))
	})

	It("should turn everything off for nop", func() {
		s, err := cu.GenerateSignals("nop")

		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(pipeline.ControlSignals{}))
	})

	DescribeTable("ALU operations",
		func(mnemonic string, op pipeline.ALUOp, aluSrc bool) {
			s, err := cu.GenerateSignals(mnemonic)

			Expect(err).NotTo(HaveOccurred())
			Expect(s.ALUOp).To(Equal(op))
			Expect(s.ALUSrc).To(Equal(aluSrc))
			Expect(s.RegWrite).To(BeTrue())
		},
		Entry("sub", "sub", pipeline.ALUSub, false),
		Entry("slt", "slt", pipeline.ALUSlt, false),
		Entry("sra", "sra", pipeline.ALUSra, false),
		Entry("andi", "andi", pipeline.ALUAnd, true),
		Entry("srli", "srli", pipeline.ALUSrl, true),
		Entry("lui", "lui", pipeline.ALULui, true),
		Entry("auipc", "auipc", pipeline.ALUAuipc, true),
	)

	It("should mark branches and jumps apart", func() {
		beq, _ := cu.GenerateSignals("beq")
		Expect(beq.Branch).To(BeTrue())
		Expect(beq.Jump).To(BeFalse())
		Expect(beq.RegWrite).To(BeFalse())

		jalr, _ := cu.GenerateSignals("jalr")
		Expect(jalr.Branch).To(BeFalse())
		Expect(jalr.Jump).To(BeTrue())
		Expect(jalr.RegWrite).To(BeTrue())
		Expect(jalr.ALUOp).To(Equal(pipeline.ALULink))
	})

	It("should reject unknown opcodes", func() {
		_, err := cu.GenerateSignals("illegal")
		Expect(err).To(MatchError(pipeline.ErrUnsupportedOperation))

		_, err = cu.Signals(insts.Op(250))
		Expect(err).To(MatchError(pipeline.ErrUnsupportedOperation))
	})
})
