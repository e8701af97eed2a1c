package nn

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// StateProvider is anything exposing its tensors by name: trainable
// parameters plus buffers such as batch norm running statistics.
type StateProvider interface {
	StateDict() map[string]*Tensor
	LoadStateDict(state map[string]*Tensor) error
}

// savedTensor is the JSON representation of one named tensor.
type savedTensor struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// checkpointFile is the on-disk layout: a flat name -> tensor mapping.
type checkpointFile struct {
	Version int                    `json:"version"`
	Tensors map[string]savedTensor `json:"tensors"`
}

// SaveCheckpoint writes the model state as JSON.
func SaveCheckpoint(path string, model StateProvider) error {
	state := model.StateDict()
	file := checkpointFile{
		Version: 1,
		Tensors: make(map[string]savedTensor, len(state)),
	}
	for name, t := range state {
		file.Tensors[name] = savedTensor{Shape: t.Shape, Data: t.Data}
	}

	data, err := json.Marshal(file)
	if err != nil {
		return errors.Wrap(err, "encoding checkpoint")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing checkpoint %s", path)
	}
	return nil
}

// LoadCheckpoint restores a model saved by SaveCheckpoint. A missing file
// surfaces as an os.ErrNotExist so callers can treat it as recoverable;
// name or shape mismatches mean the checkpoint belongs to a different
// architecture and are hard errors.
func LoadCheckpoint(path string, model StateProvider) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file checkpointFile
	if err := json.Unmarshal(data, &file); err != nil {
		return errors.Wrapf(err, "decoding checkpoint %s", path)
	}

	state := make(map[string]*Tensor, len(file.Tensors))
	for name, st := range file.Tensors {
		state[name] = NewTensorFromSlice(st.Data, st.Shape...)
	}
	if err := model.LoadStateDict(state); err != nil {
		return errors.Wrapf(err, "loading checkpoint %s", path)
	}
	return nil
}

// RunName builds the file stem a training run saves its artifacts under.
func RunName(name string, batchSize int, lr, dropout float32, epochs int) string {
	return fmt.Sprintf("model_%s_bs%d_lr%v_dr%v_epoch%d", name, batchSize, lr, dropout, epochs)
}
