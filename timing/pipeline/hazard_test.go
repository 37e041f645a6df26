package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvpipe/insts"
	"github.com/sarchlab/rvpipe/timing/pipeline"
)

var _ = Describe("HazardUnit", func() {
	var (
		hazardUnit *pipeline.HazardUnit
		regs       *pipeline.Registers
	)

	BeforeEach(func() {
		hazardUnit = pipeline.NewHazardUnit()
		regs = pipeline.NewRegisters()
	})

	Describe("Detect", func() {
		Context("when the pipeline is empty", func() {
			It("should report nothing", func() {
				Expect(hazardUnit.Detect(regs)).To(Equal(pipeline.HazardResult{}))
			})
		})

		Context("when IF/ID holds a nop", func() {
			It("should ignore producers", func() {
				regs.IDEX.Inst = decode("lw x1, 0(x2)", 0)
				regs.EXMEM.Inst = decode("add x1, x2, x3", 0)

				Expect(hazardUnit.Detect(regs)).To(Equal(pipeline.HazardResult{}))
			})
		})

		Context("load-use", func() {
			It("should stall on a lw feeding rs1", func() {
				regs.IDEX.Inst = decode("lw x1, 0(x2)", 0)
				regs.IFID.Inst = decode("add x3, x1, x4", 4)

				Expect(hazardUnit.Detect(regs).Stall).To(BeTrue())
			})

			It("should stall on a lw feeding rs2", func() {
				regs.IDEX.Inst = decode("lw x4, 0(x2)", 0)
				regs.IFID.Inst = decode("sw x4, 8(x0)", 4)

				Expect(hazardUnit.Detect(regs).Stall).To(BeTrue())
			})

			It("should not stall on an independent instruction", func() {
				regs.IDEX.Inst = decode("lw x1, 0(x2)", 0)
				regs.IFID.Inst = decode("add x3, x5, x4", 4)

				Expect(hazardUnit.Detect(regs).Stall).To(BeFalse())
			})

			It("should not stall on an ALU producer", func() {
				regs.IDEX.Inst = decode("addi x1, x0, 1", 0)
				regs.IFID.Inst = decode("add x3, x1, x1", 4)

				Expect(hazardUnit.Detect(regs).Stall).To(BeFalse())
			})

			It("should never stall on x0", func() {
				regs.IDEX.Inst = decode("lw x0, 0(x2)", 0)
				regs.IFID.Inst = decode("add x3, x0, x0", 4)

				Expect(hazardUnit.Detect(regs).Stall).To(BeFalse())
			})
		})

		Context("forwarding", func() {
			BeforeEach(func() {
				regs.IFID.Inst = decode("add x3, x1, x2", 8)
			})

			It("should tag EX for an EX/MEM producer", func() {
				regs.EXMEM.Inst = decode("addi x1, x0, 5", 0)

				result := hazardUnit.Detect(regs)
				Expect(result.Forward.Rs1).To(Equal(pipeline.ForwardFromEX))
				Expect(result.Forward.Rs2).To(Equal(pipeline.ForwardNone))
			})

			It("should tag MEM for a MEM/WB producer", func() {
				regs.MEMWB.Inst = decode("addi x2, x0, 5", 0)

				result := hazardUnit.Detect(regs)
				Expect(result.Forward.Rs1).To(Equal(pipeline.ForwardNone))
				Expect(result.Forward.Rs2).To(Equal(pipeline.ForwardFromMEM))
			})

			It("should prefer EX/MEM when both match", func() {
				regs.EXMEM.Inst = decode("addi x1, x0, 5", 4)
				regs.MEMWB.Inst = decode("addi x1, x0, 6", 0)

				Expect(hazardUnit.Detect(regs).Forward.Rs1).To(Equal(pipeline.ForwardFromEX))
			})

			It("should ignore producers without a destination", func() {
				regs.EXMEM.Inst = decode("sw x1, 0(x0)", 4)
				regs.MEMWB.Inst = decode("beq x1, x2, 8", 0)

				Expect(hazardUnit.Detect(regs).Forward.Any()).To(BeFalse())
			})

			It("should never forward x0", func() {
				regs.IFID.Inst = decode("add x3, x0, x0", 8)
				regs.EXMEM.Inst = decode("addi x0, x0, 5", 4)

				Expect(hazardUnit.Detect(regs).Forward.Any()).To(BeFalse())
			})
		})
	})

	Describe("Bypass", func() {
		var exmem *pipeline.EXMEMRegister

		BeforeEach(func() {
			exmem = &pipeline.EXMEMRegister{
				Inst:      decode("addi x1, x0, 5", 0),
				ALUResult: 5,
				Rd:        1,
			}
		})

		It("should supply the ALU result of the matching producer", func() {
			v, ok := hazardUnit.Bypass(exmem, 1)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint32(5)))
		})

		It("should not bypass other registers", func() {
			_, ok := hazardUnit.Bypass(exmem, 2)
			Expect(ok).To(BeFalse())

			_, ok = hazardUnit.Bypass(exmem, insts.RegNone)
			Expect(ok).To(BeFalse())
		})

		It("should never bypass a load", func() {
			exmem.Inst = decode("lw x1, 0(x2)", 0)

			_, ok := hazardUnit.Bypass(exmem, 1)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("ForwardSource", func() {
		It("should render tags", func() {
			Expect(pipeline.ForwardFromEX.String()).To(Equal("EX"))
			Expect(pipeline.ForwardFromMEM.String()).To(Equal("MEM"))
			Expect(pipeline.ForwardNone.String()).To(Equal("-"))
		})
	})
})

var _ = Describe("ForwardingUnit", func() {
	It("should forward without stalling", func() {
		unit := pipeline.NewForwardingUnit()
		regs := pipeline.NewRegisters()
		regs.IDEX.Inst = decode("lw x1, 0(x2)", 4)
		regs.EXMEM.Inst = decode("addi x4, x0, 1", 0)
		regs.IFID.Inst = decode("add x3, x1, x4", 8)

		result := unit.Detect(regs)
		Expect(result.Stall).To(BeFalse())
		Expect(result.Forward.Rs2).To(Equal(pipeline.ForwardFromEX))
	})
})

var _ = Describe("NoHazardUnit", func() {
	It("should do nothing", func() {
		var unit pipeline.NoHazardUnit
		regs := pipeline.NewRegisters()
		regs.IDEX.Inst = decode("lw x1, 0(x2)", 0)
		regs.IFID.Inst = decode("add x3, x1, x4", 4)
		regs.EXMEM.Inst = decode("addi x4, x0, 1", 0)

		Expect(unit.Detect(regs)).To(Equal(pipeline.HazardResult{}))

		_, ok := unit.Bypass(&regs.EXMEM, 4)
		Expect(ok).To(BeFalse())
	})
})
