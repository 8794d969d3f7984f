package training

import (
	"fmt"
	"sort"

	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/storage"
)

// ColOutcome is the pass/fail label derived for the students-pass preset.
const ColOutcome = "outcome"

// PassMark is the final score at or above which a student passes.
const PassMark = 60.0

// Task selects what the forest learns.
type Task string

const (
	// TaskClassify predicts a label from the factorized target.
	TaskClassify Task = storage.TaskClassify
	// TaskRegress predicts the numeric target itself.
	TaskRegress Task = storage.TaskRegress
)

// Preset names a dataset layout: which column is the target, which columns
// are predictors and which of those are categorical.
type Preset struct {
	// Derive, when set, adds columns (such as the target) before training.
	Derive      func(*dataset.Table) (*dataset.Table, error)
	Name        string
	Target      string
	Encoding    string
	Task        Task
	Predictors  []string
	Categorical []string
}

var studentPredictors = []string{
	dataset.ColGender, dataset.ColMajor, dataset.ColStudyHours,
	dataset.ColAttendance, dataset.ColMidterm, dataset.ColHomework,
}

var presets = map[string]Preset{
	"penguins": {
		Name:   "penguins",
		Target: dataset.ColSpecies,
		Task:   TaskClassify,
		Predictors: []string{
			dataset.ColIsland, dataset.ColBillLength, dataset.ColBillDepth,
			dataset.ColFlipperLength, dataset.ColBodyMass, dataset.ColSex,
		},
		Categorical: []string{dataset.ColIsland, dataset.ColSex},
	},
	// The Chinese-header penguin file is GBK encoded.
	"penguins-zh": {
		Name:     "penguins-zh",
		Target:   "企鹅的种类",
		Encoding: "gbk",
		Task:     TaskClassify,
		Predictors: []string{
			"企鹅栖息的岛屿", "喙的长度", "喙的深度", "翅膀的长度", "身体质量", "性别",
		},
		Categorical: []string{"企鹅栖息的岛屿", "性别"},
	},
	"students": {
		Name:        "students",
		Target:      dataset.ColFinal,
		Task:        TaskRegress,
		Predictors:  studentPredictors,
		Categorical: []string{dataset.ColGender, dataset.ColMajor},
	},
	"students-pass": {
		Name:        "students-pass",
		Target:      ColOutcome,
		Task:        TaskClassify,
		Predictors:  studentPredictors,
		Categorical: []string{dataset.ColGender, dataset.ColMajor},
		Derive:      deriveOutcome,
	},
}

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, common.NewConfigError("lookup preset",
			fmt.Errorf("%w: unknown preset %q (have %v)", common.ErrInvalidConfig, name, PresetNames()))
	}
	return p, nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Verdict turns a predicted final score into "pass" or "fail". It reports
// false for any other target.
func Verdict(target string, value float64) (string, bool) {
	if target != dataset.ColFinal {
		return "", false
	}
	if value >= PassMark {
		return "pass", true
	}
	return "fail", true
}

func deriveOutcome(t *dataset.Table) (*dataset.Table, error) {
	if t.Has(ColOutcome) {
		return t, nil
	}
	return t.AddColumn(ColOutcome, func(r dataset.Record) (string, error) {
		score, err := dataset.ParseFloat(r.Get(dataset.ColFinal))
		if err != nil {
			return "", err
		}
		verdict, _ := Verdict(dataset.ColFinal, score)
		return verdict, nil
	})
}
