package train

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WriteCurves saves the four per-epoch series under the run's path stem,
// one value per line.
func WriteCurves(path string, hist *History) error {
	files := []struct {
		suffix string
		vals   []float32
	}{
		{"_train_err.csv", hist.TrainErr},
		{"_val_err.csv", hist.ValErr},
		{"_train_loss.csv", hist.TrainLoss},
		{"_val_loss.csv", hist.ValLoss},
	}
	for _, f := range files {
		var b strings.Builder
		for _, v := range f.vals {
			fmt.Fprintf(&b, "%g\n", v)
		}
		if err := os.WriteFile(path+f.suffix, []byte(b.String()), 0o644); err != nil {
			return errors.Wrapf(err, "writing curve %s", path+f.suffix)
		}
	}
	return nil
}

func readCurve(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading curve %s", path)
	}
	var vals []float64
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing curve %s", path)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func curvePoints(vals []float64) plotter.XYs {
	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	return pts
}

func renderCurve(title, ylabel, out string, trainVals, valVals []float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = ylabel

	if err := plotutil.AddLinePoints(p,
		"Train", curvePoints(trainVals),
		"Validation", curvePoints(valVals)); err != nil {
		return errors.Wrapf(err, "building %s chart", ylabel)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, out); err != nil {
		return errors.Wrapf(err, "saving %s", out)
	}
	return nil
}

// PlotCurves reads the four curve files back from the run's path stem
// and renders the error and loss comparison charts next to them.
func PlotCurves(path string) error {
	trainErr, err := readCurve(path + "_train_err.csv")
	if err != nil {
		return err
	}
	valErr, err := readCurve(path + "_val_err.csv")
	if err != nil {
		return err
	}
	trainLoss, err := readCurve(path + "_train_loss.csv")
	if err != nil {
		return err
	}
	valLoss, err := readCurve(path + "_val_loss.csv")
	if err != nil {
		return err
	}

	if err := renderCurve("Train vs Validation Error", "Error", path+"_error.png", trainErr, valErr); err != nil {
		return err
	}
	return renderCurve("Train vs Validation Loss", "Loss", path+"_loss.png", trainLoss, valLoss)
}
