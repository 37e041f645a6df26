package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvpipe/timing/pipeline"
)

var _ = Describe("BranchPredictor", func() {
	var bp *pipeline.BranchPredictor

	BeforeEach(func() {
		bp = pipeline.NewBranchPredictor()
	})

	Describe("Prediction", func() {
		It("should initially predict not taken", func() {
			Expect(bp.Predict(0x10).Taken).To(BeFalse())
		})

		It("should remember the last outcome", func() {
			bp.Update(0x10, true)
			Expect(bp.Predict(0x10).Taken).To(BeTrue())

			bp.Update(0x10, false)
			Expect(bp.Predict(0x10).Taken).To(BeFalse())
		})

		It("should flip after a single opposite outcome", func() {
			for i := 0; i < 5; i++ {
				bp.Update(0x10, true)
			}
			bp.Update(0x10, false)

			Expect(bp.Predict(0x10).Taken).To(BeFalse())
		})

		It("should keep branches apart", func() {
			bp.Update(0x10, true)

			Expect(bp.Predict(0x14).Taken).To(BeFalse())
			Expect(bp.Entries()).To(Equal(1))
		})
	})

	Describe("FlushRequired", func() {
		DescribeTable("flush iff the prediction was wrong",
			func(predicted, actual, want bool) {
				Expect(bp.FlushRequired(predicted, actual)).To(Equal(want))
			},
			Entry("not taken, not taken", false, false, false),
			Entry("not taken, taken", false, true, true),
			Entry("taken, not taken", true, false, true),
			Entry("taken, taken", true, true, false),
		)
	})

	Describe("Statistics", func() {
		It("should count outcomes against the stored bit", func() {
			bp.Update(0x10, true)  // stored false: wrong
			bp.Update(0x10, true)  // stored true: right
			bp.Update(0x10, false) // stored true: wrong

			stats := bp.Stats()
			Expect(stats.Updates).To(Equal(uint64(3)))
			Expect(stats.Correct).To(Equal(uint64(1)))
			Expect(stats.Mispredictions).To(Equal(uint64(2)))
			Expect(stats.Accuracy()).To(BeNumerically("~", 100.0/3, 1e-9))
		})

		It("should report zero accuracy with no updates", func() {
			Expect(bp.Stats().Accuracy()).To(BeZero())
		})
	})

	Describe("Reset", func() {
		It("should forget history and statistics", func() {
			bp.Update(0x10, true)
			bp.Predict(0x10)
			bp.Reset()

			Expect(bp.Stats()).To(Equal(pipeline.BranchPredictorStats{}))
			Expect(bp.Predict(0x10).Taken).To(BeFalse())
		})
	})
})

var _ = Describe("NullPredictor", func() {
	var np *pipeline.NullPredictor

	BeforeEach(func() {
		np = pipeline.NewNullPredictor()
	})

	It("should never predict taken", func() {
		np.Update(0x10, true)
		np.Update(0x10, true)

		Expect(np.Predict(0x10).Taken).To(BeFalse())
	})

	It("should flush on every taken branch", func() {
		Expect(np.FlushRequired(false, true)).To(BeTrue())
		Expect(np.FlushRequired(false, false)).To(BeFalse())
		Expect(np.FlushRequired(true, true)).To(BeFalse())
	})

	It("should count not-taken outcomes as correct", func() {
		np.Update(0x10, false)
		np.Update(0x10, true)

		Expect(np.Stats().Correct).To(Equal(uint64(1)))
		Expect(np.Stats().Mispredictions).To(Equal(uint64(1)))

		np.Reset()
		Expect(np.Stats().Updates).To(BeZero())
	})

	It("should satisfy BranchPolicy", func() {
		var policy pipeline.BranchPolicy = np
		Expect(policy).NotTo(BeNil())
	})
})
