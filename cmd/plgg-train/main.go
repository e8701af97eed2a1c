// Command plgg-train runs the repeated-trial BRAF status experiment:
// it loads the clinical workbook and the paired FLAIR volumes, trains
// one classifier per trial on a fresh random split, and reports the
// per-trial and aggregate AUC figures.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/IMICSLab/pLGG-Predict-Status/data"
	"github.com/IMICSLab/pLGG-Predict-Status/detector"
	"github.com/IMICSLab/pLGG-Predict-Status/nn"
	"github.com/IMICSLab/pLGG-Predict-Status/train"
)

func main() {
	args := struct {
		Metadata     string  `arg:"required,help:clinical workbook (.xlsx)"`
		Sheet        string  `arg:"help:workbook sheet holding the cohort"`
		Images       string  `arg:"required,help:root directory of per-patient volume folders"`
		Trials       int     `arg:"help:number of repeated trials"`
		Epochs       int     `arg:"help:epochs per trial"`
		BatchSize    int     `arg:"--batch-size,help:training batch size"`
		LR           float32 `arg:"--lr,help:base learning rate"`
		Dropout      float32 `arg:"help:dropout rate applied to the input volume"`
		Depth        int     `arg:"help:backbone depth"`
		Limit        int     `arg:"help:cap on loaded patients; 0 loads the whole cohort"`
		UseScheduler bool    `arg:"--use-scheduler,help:decay the learning rate during training"`
		Curves       string  `arg:"help:directory for learning-curve series and charts"`
		Models       string  `arg:"help:directory for best-epoch checkpoints"`
		Results      string  `arg:"help:path for the trial report CSV"`
		LoadModel    string  `arg:"--load-model,help:inspect an existing checkpoint and exit"`
	}{
		Sheet:     "SK",
		Trials:    5,
		Epochs:    30,
		BatchSize: 8,
		LR:        0.01,
		Dropout:   0.5,
		Depth:     18,
	}
	arg.MustParse(&args)

	startUp := time.Now()
	dev := detector.Probe()
	fmt.Printf("Device: %s.\n", dev.Tag())

	fmt.Printf("Loading %s, Sheet: %s...\n", args.Metadata, args.Sheet)
	clinical, err := data.LoadClinical(args.Metadata, args.Sheet, data.DefaultExclusions)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Println("Done.")
	fmt.Printf("Start-up time: %v\n\n", time.Since(startUp))

	loadImages := time.Now()
	store, err := data.LoadVolumes(args.Images, clinical, args.Limit)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Printf("Image loading time: %v\n\n", time.Since(loadImages))

	if args.LoadModel != "" {
		inspect(args.LoadModel, args.Depth, args.Dropout)
		return
	}

	trainer := train.DefaultTrainerConfig()
	trainer.Epochs = args.Epochs
	trainer.BatchSize = args.BatchSize
	trainer.LearningRate = args.LR
	trainer.UseScheduler = args.UseScheduler
	trainer.Device = dev.Tag()

	cfg := train.TrialConfig{
		Depth:       args.Depth,
		DropoutRate: args.Dropout,
		Trainer:     trainer,
		Accelerator: dev.Available,
		CurveDir:    args.Curves,
		ModelDir:    args.Models,
	}

	rows := make([]*train.TrialResult, 0, args.Trials)
	seed := int64(1)
	for trial := 0; trial < args.Trials; trial++ {
		row, next, err := train.RunTrial(trial, seed, store, cfg)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		fmt.Printf("Best Epoch: %d, Training Error %.3f, Training Loss %.3f, Training AUC: %.3f, "+
			"Validation Error %.3f, Validation Loss %.3f, Validation AUC: %.3f, Test AUC: %.3f\n",
			row.BestEpoch, row.TrainErr, row.TrainLoss, row.TrainAUC,
			row.ValErr, row.ValLoss, row.ValAUC, row.TestAUC)
		rows = append(rows, row)
		seed = next
	}

	if args.Results != "" {
		if err := train.WriteResults(args.Results, rows); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	for _, s := range train.Summarize(rows) {
		fmt.Printf("%s: mean %.3f, std %.3f\n", s.Name, s.Mean, s.Std)
	}
	fmt.Println("Experiment done.")
}

// inspect rebuilds the experiment architecture, loads the checkpoint
// into it and reports what it holds. A missing file is not a failure.
func inspect(path string, depth int, dropout float32) {
	model, err := train.BuildModel(depth, [4]int{}, dropout, rand.New(rand.NewSource(1)))
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if err := nn.LoadCheckpoint(path, model); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("Model not found.")
			return
		}
		log.Fatalf("%+v", err)
	}

	total := 0
	for _, p := range model.Params() {
		total += p.Size()
	}
	fmt.Printf("Loaded %s (%d parameters) from %s.\n", model.Name(), total, path)
}
