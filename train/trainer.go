// Package train runs the per-trial optimization loop over a split
// dataset: noisy-batch training, validation tracking, ROC-AUC scoring
// and curve/report artifacts.
package train

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/IMICSLab/pLGG-Predict-Status/data"
	"github.com/IMICSLab/pLGG-Predict-Status/nn"
	"github.com/IMICSLab/pLGG-Predict-Status/resnet"
)

// TrainerConfig carries every knob the epoch loop reads; nothing is
// ambient.
type TrainerConfig struct {
	Epochs         int
	BatchSize      int
	LearningRate   float32
	Optimizer      string
	UseScheduler   bool
	SchedulerStep  int
	SchedulerGamma float32
	NoiseStd       float32
	Device         string
}

// DefaultTrainerConfig mirrors the study defaults.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Epochs:         30,
		BatchSize:      8,
		LearningRate:   0.01,
		Optimizer:      "adam",
		UseScheduler:   false,
		SchedulerStep:  75,
		SchedulerGamma: 0.1,
		NoiseStd:       0.1,
		Device:         "cpu",
	}
}

// Validate reports the first configuration problem found. The scheduler
// knobs are checked only when the scheduler is enabled.
func (c TrainerConfig) Validate() error {
	if c.Epochs < 1 {
		return errors.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.BatchSize < 1 {
		return errors.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning rate must be positive, got %v", c.LearningRate)
	}
	if c.NoiseStd < 0 {
		return errors.Errorf("noise std must not be negative, got %v", c.NoiseStd)
	}
	if c.UseScheduler {
		if c.SchedulerStep < 1 {
			return errors.Errorf("scheduler step must be positive, got %d", c.SchedulerStep)
		}
		if c.SchedulerGamma <= 0 {
			return errors.Errorf("scheduler gamma must be positive, got %v", c.SchedulerGamma)
		}
	}
	return nil
}

// History records the per-epoch curve series.
type History struct {
	TrainErr  []float32
	TrainLoss []float32
	ValErr    []float32
	ValLoss   []float32
}

// TrainResult is the trial's representative outcome: the metrics at the
// epoch with the lowest validation loss, plus the full curve history.
type TrainResult struct {
	BestEpoch int
	TrainErr  float32
	TrainLoss float32
	TrainAUC  float64
	ValErr    float32
	ValLoss   float32
	ValAUC    float64
	TestAUC   float64
	History   *History
}

// Train runs the epoch loop over a split. Training batches are
// perturbed with Gaussian noise; the scheduler, when enabled, advances
// once per optimizer step. On every new lowest validation loss the test
// partition is scored and that epoch's figures become the trial's
// result. The model is left holding the best epoch's weights.
func Train(model *resnet.ResNet, split data.Split, cfg TrainerConfig, seeder *Seeder) (*TrainResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opt, err := nn.NewOptimizer(cfg.Optimizer)
	if err != nil {
		return nil, err
	}
	var sched nn.LRScheduler = nn.NewConstantScheduler(cfg.LearningRate)
	if cfg.UseScheduler {
		sched = nn.NewStepDecayScheduler(cfg.LearningRate, cfg.SchedulerGamma, cfg.SchedulerStep)
	}
	criterion := nn.NewBCELoss()
	params := model.Params()

	result := &TrainResult{
		BestEpoch: -1,
		ValLoss:   float32(math.Inf(1)),
		History:   &History{},
	}
	hist := result.History
	var bestState map[string]*nn.Tensor
	step := 0

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		model.SetTraining(true)
		var training RunningTotals

		for _, batch := range Batches(split.Train.Len(), cfg.BatchSize, true, seeder.Noise) {
			inputs, labels := Stack(split.Train, batch)
			noisy := nn.AddGaussianNoise(inputs, cfg.NoiseStd, seeder.Noise)

			nn.ZeroGrad(params)
			out := model.Forward(noisy)
			loss := criterion.Forward(out, labels)
			model.Backward(criterion.Backward())
			opt.Step(params, sched.GetLR(step))
			step++

			training.Add(loss, labels.Data, out.Data)
		}

		trainAUC, err := training.AUC()
		if err != nil {
			return nil, errors.Wrapf(err, "epoch %d training AUC", epoch)
		}

		valErr, valLoss, valAUC, err := Evaluate(model, split.Val, cfg.BatchSize, criterion)
		if err != nil {
			return nil, errors.Wrapf(err, "epoch %d validation", epoch)
		}

		hist.TrainErr = append(hist.TrainErr, training.ErrorRate())
		hist.TrainLoss = append(hist.TrainLoss, training.MeanLoss())
		hist.ValErr = append(hist.ValErr, valErr)
		hist.ValLoss = append(hist.ValLoss, valLoss)

		if valLoss < result.ValLoss {
			_, _, testAUC, err := Evaluate(model, split.Test, cfg.BatchSize, criterion)
			if err != nil {
				return nil, errors.Wrapf(err, "epoch %d test", epoch)
			}
			result.BestEpoch = epoch
			result.TrainErr = training.ErrorRate()
			result.TrainLoss = training.MeanLoss()
			result.TrainAUC = trainAUC
			result.ValErr = valErr
			result.ValLoss = valLoss
			result.ValAUC = valAUC
			result.TestAUC = testAUC
			bestState = snapshotState(model)
		}

		fmt.Printf("Epoch %d: train err %.3f loss %.3f auc %.3f | val err %.3f loss %.3f auc %.3f\n",
			epoch, training.ErrorRate(), training.MeanLoss(), trainAUC, valErr, valLoss, valAUC)
	}

	if bestState != nil {
		if err := model.LoadStateDict(bestState); err != nil {
			return nil, errors.Wrap(err, "restoring best epoch weights")
		}
	}
	return result, nil
}

// snapshotState deep-copies the model state; the live dict aliases the
// parameter buffers.
func snapshotState(model *resnet.ResNet) map[string]*nn.Tensor {
	state := model.StateDict()
	snap := make(map[string]*nn.Tensor, len(state))
	for name, t := range state {
		snap[name] = t.Clone()
	}
	return snap
}
