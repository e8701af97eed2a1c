package train

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/IMICSLab/pLGG-Predict-Status/data"
	"github.com/IMICSLab/pLGG-Predict-Status/nn"
	"github.com/IMICSLab/pLGG-Predict-Status/resnet"
)

// TrialConfig selects the architecture and artifacts for one trial on
// top of the epoch-loop knobs.
type TrialConfig struct {
	Depth       int
	DropoutRate float32
	Trainer     TrainerConfig
	Accelerator bool

	// Inplanes overrides the stock stage widths; the zero value keeps
	// them.
	Inplanes [4]int

	// CurveDir and ModelDir enable the per-run artifacts when set.
	CurveDir string
	ModelDir string
}

// TrialResult is one row of the experiment report.
type TrialResult struct {
	Trial     int     `csv:"trial"`
	Seed      int64   `csv:"seed"`
	BestEpoch int     `csv:"best_epoch"`
	TrainErr  float32 `csv:"train_err"`
	TrainLoss float32 `csv:"train_loss"`
	TrainAUC  float64 `csv:"train_auc"`
	ValErr    float32 `csv:"val_err"`
	ValLoss   float32 `csv:"val_loss"`
	ValAUC    float64 `csv:"val_auc"`
	TestAUC   float64 `csv:"test_auc"`
	Seconds   float64 `csv:"seconds"`
}

// BuildModel follows the study script: the backbone is constructed with
// its stock three-channel stem and 1039-class head, which are then
// swapped for the single-channel stem (temporal kernel 7, stride 1) and
// the one-unit sigmoid head.
func BuildModel(depth int, inplanes [4]int, dropout float32, rng *rand.Rand) (*resnet.ResNet, error) {
	cfg := resnet.DefaultConfig()
	cfg.Depth = depth
	cfg.InChannels = 3
	cfg.NumClasses = 1039
	cfg.DropoutRate = float64(dropout)
	if inplanes != [4]int{} {
		cfg.Inplanes = inplanes
	}

	model, err := resnet.Generate(cfg, rng)
	if err != nil {
		return nil, err
	}
	if err := model.ReplaceStem(1, 7, 1); err != nil {
		return nil, err
	}
	if err := model.ReplaceHead(1); err != nil {
		return nil, err
	}
	return model, nil
}

// RunTrial seeds, splits, builds and trains one trial. It returns the
// trial row and the seed for the following trial.
func RunTrial(trial int, seed int64, store *data.Store, cfg TrialConfig) (*TrialResult, int64, error) {
	if err := cfg.Trainer.Validate(); err != nil {
		return nil, 0, errors.Wrapf(err, "trial %d", trial)
	}
	start := time.Now()
	seeder := NewSeeder(seed, cfg.Accelerator)

	split := data.RandomSplit(store, seeder.Split)
	fmt.Printf("Datasplit -> Training: %d, Validation: %d, Testing: %d.\n",
		split.Train.Len(), split.Val.Len(), split.Test.Len())

	model, err := BuildModel(cfg.Depth, cfg.Inplanes, cfg.DropoutRate, seeder.Init)
	if err != nil {
		return nil, 0, err
	}

	res, err := Train(model, split, cfg.Trainer, seeder)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "trial %d", trial)
	}

	name := nn.RunName(model.Name(), cfg.Trainer.BatchSize, cfg.Trainer.LearningRate,
		cfg.DropoutRate, cfg.Trainer.Epochs)
	if cfg.CurveDir != "" {
		stem := filepath.Join(cfg.CurveDir, name)
		if err := WriteCurves(stem, res.History); err != nil {
			return nil, 0, err
		}
		if err := PlotCurves(stem); err != nil {
			return nil, 0, err
		}
	}
	if cfg.ModelDir != "" {
		if err := nn.SaveCheckpoint(filepath.Join(cfg.ModelDir, name), model); err != nil {
			return nil, 0, err
		}
	}

	duration := time.Since(start)
	fmt.Printf("Trial %d time: %v\n\n", trial, duration)

	row := &TrialResult{
		Trial:     trial,
		Seed:      seed,
		BestEpoch: res.BestEpoch,
		TrainErr:  res.TrainErr,
		TrainLoss: res.TrainLoss,
		TrainAUC:  res.TrainAUC,
		ValErr:    res.ValErr,
		ValLoss:   res.ValLoss,
		ValAUC:    res.ValAUC,
		TestAUC:   res.TestAUC,
		Seconds:   duration.Seconds(),
	}
	return row, seeder.Next(), nil
}
