package pipeline

// BranchPredictorStats holds statistics for a branch predictor.
type BranchPredictorStats struct {
	// Predictions is the total number of predictions made.
	Predictions uint64
	// Updates is the number of resolved outcomes fed back.
	Updates uint64
	// Correct is the number of resolved outcomes that matched the stored bit.
	Correct uint64
	// Mispredictions is the number of resolved outcomes that did not.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s BranchPredictorStats) Accuracy() float64 {
	if s.Updates == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Updates) * 100
}

// Prediction represents a branch prediction result. The target is computed
// by the caller.
type Prediction struct {
	Taken bool
}

// BranchPolicy is the prediction strategy plugged into the pipeline.
type BranchPolicy interface {
	// Predict returns the prediction for the branch at pc.
	Predict(pc uint32) Prediction

	// Update records the resolved outcome of the branch at pc.
	Update(pc uint32, taken bool)

	// FlushRequired reports whether a resolved branch needs the younger
	// instructions in the pipeline discarded.
	FlushRequired(predicted, actual bool) bool

	// Stats returns the accumulated statistics.
	Stats() BranchPredictorStats

	// Reset clears all state and statistics.
	Reset()
}

// BranchPredictor is a 1-bit predictor: for each branch PC it remembers the
// last resolved outcome. Unseen PCs predict not taken.
type BranchPredictor struct {
	history map[uint32]bool
	stats   BranchPredictorStats
}

// NewBranchPredictor creates an empty last-outcome predictor.
func NewBranchPredictor() *BranchPredictor {
	return &BranchPredictor{
		history: make(map[uint32]bool),
	}
}

// Predict returns the stored bit for pc.
func (bp *BranchPredictor) Predict(pc uint32) Prediction {
	bp.stats.Predictions++
	return Prediction{Taken: bp.history[pc]}
}

// Update overwrites the stored bit with the resolved outcome.
func (bp *BranchPredictor) Update(pc uint32, taken bool) {
	if bp.history[pc] == taken {
		bp.stats.Correct++
	} else {
		bp.stats.Mispredictions++
	}
	bp.stats.Updates++

	bp.history[pc] = taken
}

// FlushRequired is true iff the prediction disagrees with the outcome.
func (bp *BranchPredictor) FlushRequired(predicted, actual bool) bool {
	return predicted != actual
}

// Stats returns the branch predictor statistics.
func (bp *BranchPredictor) Stats() BranchPredictorStats {
	return bp.stats
}

// Reset clears all predictor state and statistics.
func (bp *BranchPredictor) Reset() {
	clear(bp.history)
	bp.stats = BranchPredictorStats{}
}

// Entries returns the number of branch PCs with a stored outcome.
func (bp *BranchPredictor) Entries() int {
	return len(bp.history)
}

// NullPredictor always predicts not taken and never learns. A taken branch
// therefore always requires a flush.
type NullPredictor struct {
	stats BranchPredictorStats
}

// NewNullPredictor creates a predictor that never predicts taken.
func NewNullPredictor() *NullPredictor {
	return &NullPredictor{}
}

// Predict always returns not taken.
func (np *NullPredictor) Predict(uint32) Prediction {
	np.stats.Predictions++
	return Prediction{}
}

// Update only counts the outcome against the fixed not-taken prediction.
func (np *NullPredictor) Update(_ uint32, taken bool) {
	if taken {
		np.stats.Mispredictions++
	} else {
		np.stats.Correct++
	}
	np.stats.Updates++
}

// FlushRequired fires whenever the branch was taken and was not predicted.
func (np *NullPredictor) FlushRequired(predicted, actual bool) bool {
	return actual && !predicted
}

// Stats returns the accumulated statistics.
func (np *NullPredictor) Stats() BranchPredictorStats {
	return np.stats
}

// Reset clears the statistics.
func (np *NullPredictor) Reset() {
	np.stats = BranchPredictorStats{}
}
