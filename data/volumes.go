package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"

	"github.com/IMICSLab/pLGG-Predict-Status/nn"
)

// Patient pairs one preprocessed input volume with its label.
type Patient struct {
	Code  int
	Input *nn.Tensor // [1][T][H][W]: element-wise product of the two channel volumes
	Label float32
}

// Store holds every loaded patient keyed by code. Codes preserves the
// ascending load order.
type Store struct {
	Patients map[int]*Patient
	Codes    []int
}

// ListImagePatients returns the integer-named subdirectories of the image
// root in ascending order. Entries that are not integer codes are reported
// and skipped.
func ListImagePatients(root string) ([]int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "listing image directory %s", root)
	}

	var codes []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		code, err := strconv.Atoi(e.Name())
		if err != nil {
			fmt.Printf("Patient %s FLAIR not found.\n", e.Name())
			continue
		}
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes, nil
}

// LoadVolumes reads the paired channel volumes of every patient that has
// both imaging and a label, in ascending code order. limit > 0 stops
// after that many patients. Each patient directory must hold exactly two
// .npy arrays of equal shape; the stored input is their element-wise
// product as a single channel.
//
// The channel files carry no modality naming, so the pair is taken in
// lexical listing order. A renamed file silently swaps the channels.
func LoadVolumes(root string, clinical *Clinical, limit int) (*Store, error) {
	imaged, err := ListImagePatients(root)
	if err != nil {
		return nil, err
	}

	var codes []int
	for _, code := range imaged {
		if _, ok := clinical.Labels[code]; ok {
			codes = append(codes, code)
		}
	}
	fmt.Printf("Total number of patients: %d.\n", len(codes))
	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}

	store := &Store{Patients: make(map[int]*Patient, len(codes))}
	for _, code := range codes {
		fmt.Printf("Loading Patient %d...\n", code)
		patient, err := loadPatient(root, code, clinical.Labels[code])
		if err != nil {
			return nil, err
		}
		store.Patients[code] = patient
		store.Codes = append(store.Codes, code)
	}
	return store, nil
}

func loadPatient(root string, code int, label float32) (*Patient, error) {
	pattern := filepath.Join(root, strconv.Itoa(code), "*", "*.npy")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "patient %d: globbing %s", code, pattern)
	}
	if len(files) != 2 {
		return nil, errors.Errorf("patient %d: expected 2 channel volumes, found %d", code, len(files))
	}

	a, shapeA, err := readVolume(files[0])
	if err != nil {
		return nil, errors.Wrapf(err, "patient %d", code)
	}
	b, shapeB, err := readVolume(files[1])
	if err != nil {
		return nil, errors.Wrapf(err, "patient %d", code)
	}
	if len(shapeA) != 3 {
		return nil, errors.Errorf("patient %d: expected a 3D volume, got shape %v", code, shapeA)
	}
	for i := range shapeA {
		if shapeA[i] != shapeB[i] {
			return nil, errors.Errorf("patient %d: channel shapes differ: %v vs %v", code, shapeA, shapeB)
		}
	}

	product := make([]float32, len(a))
	for i := range a {
		product[i] = a[i] * b[i]
	}

	return &Patient{
		Code:  code,
		Input: nn.NewTensorFromSlice(product, 1, shapeA[0], shapeA[1], shapeA[2]),
		Label: label,
	}, nil
}

// readVolume parses one .npy array as float32, accepting f4 and f8
// element types.
func readVolume(path string) ([]float32, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading npy header of %s", path)
	}
	if r.Header.Descr.Fortran {
		return nil, nil, errors.Errorf("%s: Fortran-ordered arrays are not supported", path)
	}
	shape := r.Header.Descr.Shape

	switch {
	case strings.Contains(r.Header.Descr.Type, "f4"):
		var data []float32
		if err := r.Read(&data); err != nil {
			return nil, nil, errors.Wrapf(err, "reading %s", path)
		}
		return data, shape, nil
	case strings.Contains(r.Header.Descr.Type, "f8"):
		var data []float64
		if err := r.Read(&data); err != nil {
			return nil, nil, errors.Wrapf(err, "reading %s", path)
		}
		out := make([]float32, len(data))
		for i, v := range data {
			out[i] = float32(v)
		}
		return out, shape, nil
	default:
		return nil, nil, errors.Errorf("%s: unsupported npy element type %q", path, r.Header.Descr.Type)
	}
}
