package train

import (
	"github.com/IMICSLab/pLGG-Predict-Status/data"
	"github.com/IMICSLab/pLGG-Predict-Status/nn"
	"github.com/IMICSLab/pLGG-Predict-Status/resnet"
)

// Evaluate runs one full pass in evaluation mode and returns the error
// rate, the batch-mean loss and the AUC. A single-class label
// collection surfaces as an *ErrSingleClass.
func Evaluate(model *resnet.ResNet, ds *data.Dataset, batchSize int, criterion *nn.BCELoss) (float32, float32, float64, error) {
	model.SetTraining(false)

	var totals RunningTotals
	for _, batch := range Batches(ds.Len(), batchSize, false, nil) {
		inputs, labels := Stack(ds, batch)
		out := model.Forward(inputs)
		loss := criterion.Forward(out, labels)
		totals.Add(loss, labels.Data, out.Data)
	}

	auc, err := totals.AUC()
	if err != nil {
		return totals.ErrorRate(), totals.MeanLoss(), 0, err
	}
	return totals.ErrorRate(), totals.MeanLoss(), auc, nil
}
