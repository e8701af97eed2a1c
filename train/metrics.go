package train

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ErrSingleClass reports a label collection holding only one class, for
// which the area under the ROC curve is undefined. It is a data-quality
// failure, not an engine fault.
type ErrSingleClass struct {
	Positives int
	Negatives int
}

func (e *ErrSingleClass) Error() string {
	return fmt.Sprintf("single-class labels: %d positive, %d negative", e.Positives, e.Negatives)
}

// IsSingleClass reports whether err wraps an undefined-AUC failure.
func IsSingleClass(err error) bool {
	var single *ErrSingleClass
	return errors.As(err, &single)
}

// ROCAUC computes the area under the ROC curve for binary labels and raw
// scores.
func ROCAUC(labels, scores []float32) (float64, error) {
	if len(labels) != len(scores) {
		return 0, errors.Errorf("labels and scores differ in length: %d vs %d", len(labels), len(scores))
	}

	var pos, neg int
	ys := make([]float64, len(scores))
	classes := make([]bool, len(labels))
	for i := range labels {
		ys[i] = float64(scores[i])
		classes[i] = labels[i] == 1
		if classes[i] {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, &ErrSingleClass{Positives: pos, Negatives: neg}
	}

	// stat.ROC wants the scores sorted with their classes alongside.
	stat.SortWeightedLabeled(ys, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, ys, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
