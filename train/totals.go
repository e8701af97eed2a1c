package train

// RunningTotals folds per-batch results into one pass's record: the
// summed batch-mean losses, the batch count, and every (label, score)
// pair seen.
type RunningTotals struct {
	LossSum float64
	Batches int
	Labels  []float32
	Scores  []float32
}

// Add folds one batch's mean loss and its per-sample pairs.
func (r *RunningTotals) Add(batchLoss float32, labels, scores []float32) {
	r.LossSum += float64(batchLoss)
	r.Batches++
	r.Labels = append(r.Labels, labels...)
	r.Scores = append(r.Scores, scores...)
}

// MeanLoss weights every batch equally regardless of its size; a short
// final batch counts the same as a full one.
func (r *RunningTotals) MeanLoss() float32 {
	if r.Batches == 0 {
		return 0
	}
	return float32(r.LossSum / float64(r.Batches))
}

// ErrorRate is the fraction of samples whose thresholded score
// (score > 0) disagrees with the label.
func (r *RunningTotals) ErrorRate() float32 {
	if len(r.Labels) == 0 {
		return 0
	}
	wrong := 0
	for i, label := range r.Labels {
		predicted := float32(0)
		if r.Scores[i] > 0 {
			predicted = 1
		}
		if predicted != label {
			wrong++
		}
	}
	return float32(wrong) / float32(len(r.Labels))
}

// AUC computes the discrimination score over the collected pairs.
func (r *RunningTotals) AUC() (float64, error) {
	return ROCAUC(r.Labels, r.Scores)
}
