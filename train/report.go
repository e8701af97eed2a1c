package train

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// WriteResults saves the per-trial rows as a CSV table.
func WriteResults(path string, results []*TrialResult) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating results file %s", path)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&results, f); err != nil {
		return errors.Wrap(err, "writing results csv")
	}
	return nil
}

// Summary holds the mean and standard deviation of one metric across
// trials.
type Summary struct {
	Name string
	Mean float64
	Std  float64
}

// Summarize reports mean and spread for the AUC columns.
func Summarize(results []*TrialResult) []Summary {
	cols := []struct {
		name string
		pick func(*TrialResult) float64
	}{
		{"train_auc", func(r *TrialResult) float64 { return r.TrainAUC }},
		{"val_auc", func(r *TrialResult) float64 { return r.ValAUC }},
		{"test_auc", func(r *TrialResult) float64 { return r.TestAUC }},
	}

	var out []Summary
	for _, col := range cols {
		vals := make([]float64, len(results))
		for i, r := range results {
			vals[i] = col.pick(r)
		}
		mean, std := stat.MeanStdDev(vals, nil)
		if len(vals) < 2 {
			std = 0
		}
		out = append(out, Summary{Name: col.name, Mean: mean, Std: std})
	}
	return out
}
