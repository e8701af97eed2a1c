// Package data loads the clinical workbook and the preprocessed imaging
// volumes, and exposes them as an indexed dataset for training.
package data

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Column names as they appear in the study workbook.
const (
	codeColumn     = "code"
	mutationColumn = "BRAF V600E final"
	fusionColumn   = "BRAF fusion final"
)

// adminColumns are clinical/administrative fields dropped before the
// radiomic features are collected.
var adminColumns = map[string]bool{
	"WT":     true,
	"NF1":    true,
	"CDKN2A (0=balanced, 1=Del, 2=Undetermined)": true,
	"FGFR 1":                true,
	"FGFR 2":                true,
	"FGFR 4":                true,
	"Further gen info":      true,
	"Notes":                 true,
	"Pathology Dx_Original": true,
	"Pathology Coded":       true,
	"Location_1":            true,
	"Location_2":            true,
	"Location_Original":     true,
	"Gender":                true,
	"Age Dx":                true,
}

// DefaultExclusions lists the patient codes excluded from the study.
var DefaultExclusions = []int{
	9, 12, 23, 37, 58, 74, 78, 85, 121, 122, 130, 131, 138, 140, 150,
	171, 176, 182, 204, 213, 221, 224, 234, 245, 246, 274, 306, 311,
	312, 330, 334, 347, 349, 352, 354, 359, 364, 377,
	235, 243, 255, 261, 264, 283, 288, 293,
	299, 309, 325, 327, 333, 356, 367,
	376, 383, 387,
}

// Clinical holds the processed workbook: a binary label per patient code
// (1 = mutation, 0 = fusion) and the retained radiomic feature vector.
type Clinical struct {
	Labels       map[int]float32
	Features     map[int][]float64
	FeatureNames []string
}

// LoadClinical reads one sheet of the study workbook and derives labels.
func LoadClinical(path, sheet string, exclusions []int) (*Clinical, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening workbook %s", path)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %q", sheet)
	}
	clinical, err := ProcessSheet(rows, exclusions)
	if err != nil {
		return nil, errors.Wrapf(err, "processing sheet %q", sheet)
	}
	return clinical, nil
}

// ProcessSheet derives labels and features from header-plus-data rows.
// Rows are dropped when the code is missing, the code is excluded, or
// neither outcome indicator is set; mutation wins when both are set.
func ProcessSheet(rows [][]string, exclusions []int) (*Clinical, error) {
	if len(rows) == 0 {
		return nil, errors.New("sheet is empty")
	}
	header := rows[0]

	codeIdx, err := findColumn(header, codeColumn)
	if err != nil {
		return nil, err
	}
	mutationIdx, err := findColumn(header, mutationColumn)
	if err != nil {
		return nil, err
	}
	fusionIdx, err := findColumn(header, fusionColumn)
	if err != nil {
		return nil, err
	}

	// Feature columns: everything except code, the two indicators and
	// the administrative fields.
	var featureIdx []int
	var featureNames []string
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == codeIdx || i == mutationIdx || i == fusionIdx || adminColumns[name] || name == "" {
			continue
		}
		featureIdx = append(featureIdx, i)
		featureNames = append(featureNames, name)
	}

	excluded := make(map[int]bool, len(exclusions))
	for _, code := range exclusions {
		excluded[code] = true
	}

	clinical := &Clinical{
		Labels:       make(map[int]float32),
		Features:     make(map[int][]float64),
		FeatureNames: featureNames,
	}

	for _, row := range rows[1:] {
		code, ok := parseCode(cell(row, codeIdx))
		if !ok || excluded[code] {
			continue
		}

		var label float32
		switch {
		case isOne(cell(row, mutationIdx)):
			label = 1
		case isOne(cell(row, fusionIdx)):
			label = 0
		default:
			// Neither outcome is recorded for this patient
			continue
		}

		features := make([]float64, len(featureIdx))
		for j, idx := range featureIdx {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell(row, idx)), 64)
			if err != nil {
				v = math.NaN()
			}
			features[j] = v
		}

		clinical.Labels[code] = label
		clinical.Features[code] = features
	}

	return clinical, nil
}

func findColumn(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i, nil
		}
	}
	return 0, errors.Errorf("missing column %q", name)
}

// cell returns the value at idx, tolerating the ragged rows excelize
// produces when trailing cells are empty.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseCode accepts integer codes in either "1043" or "1043.0" form.
func parseCode(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return int(v), true
}

// isOne reports whether an indicator cell holds the value 1.
func isOne(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && v == 1
}

// String summarizes the processed sheet.
func (c *Clinical) String() string {
	return fmt.Sprintf("%d labeled patients, %d features", len(c.Labels), len(c.FeatureNames))
}
