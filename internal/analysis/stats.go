package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// groups holds row indices per major in first-seen order.
type groups struct {
	rows   map[string][]int
	majors []string
}

func groupByMajor(t *dataset.Table, cols StudentColumns) (*groups, error) {
	majors, err := t.Column(cols.Major)
	if err != nil {
		return nil, err
	}
	g := &groups{rows: make(map[string][]int)}
	for i, m := range majors {
		if _, ok := g.rows[m]; !ok {
			g.majors = append(g.majors, m)
		}
		g.rows[m] = append(g.rows[m], i)
	}
	return g, nil
}

func meanOf(values []float64, idx []int) float64 {
	picked := make([]float64, len(idx))
	for i, j := range idx {
		picked[i] = values[j]
	}
	return stat.Mean(picked, nil)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GenderRatioByMajor returns the male and female fraction of every major,
// highest male fraction first.
func GenderRatioByMajor(t *dataset.Table, cols StudentColumns) ([]GenderRatio, error) {
	g, err := groupByMajor(t, cols)
	if err != nil {
		return nil, err
	}
	genders, err := t.Column(cols.Gender)
	if err != nil {
		return nil, err
	}

	out := make([]GenderRatio, 0, len(g.majors))
	for _, major := range g.majors {
		idx := g.rows[major]
		var male, female int
		for _, i := range idx {
			switch genders[i] {
			case cols.Male:
				male++
			case cols.Female:
				female++
			}
		}
		n := float64(len(idx))
		out = append(out, GenderRatio{
			Major:  major,
			Total:  len(idx),
			Male:   float64(male) / n,
			Female: float64(female) / n,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Male != out[j].Male {
			return out[i].Male > out[j].Male
		}
		return out[i].Major < out[j].Major
	})
	return out, nil
}

// StudyVsScoreByMajor returns mean study hours, midterm and final score per
// major, best final score first.
func StudyVsScoreByMajor(t *dataset.Table, cols StudentColumns) ([]MajorScores, error) {
	g, err := groupByMajor(t, cols)
	if err != nil {
		return nil, err
	}
	hours, err := t.Float(cols.StudyHours)
	if err != nil {
		return nil, err
	}
	midterm, err := t.Float(cols.Midterm)
	if err != nil {
		return nil, err
	}
	final, err := t.Float(cols.Final)
	if err != nil {
		return nil, err
	}

	out := make([]MajorScores, 0, len(g.majors))
	for _, major := range g.majors {
		idx := g.rows[major]
		out = append(out, MajorScores{
			Major:      major,
			StudyHours: round2(meanOf(hours, idx)),
			Midterm:    round2(meanOf(midterm, idx)),
			Final:      round2(meanOf(final, idx)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Final != out[j].Final {
			return out[i].Final > out[j].Final
		}
		return out[i].Major < out[j].Major
	})
	return out, nil
}

// AttendanceByMajor returns mean attendance per major, highest first.
func AttendanceByMajor(t *dataset.Table, cols StudentColumns) ([]MajorAttendance, error) {
	g, err := groupByMajor(t, cols)
	if err != nil {
		return nil, err
	}
	attendance, err := t.Float(cols.Attendance)
	if err != nil {
		return nil, err
	}

	out := make([]MajorAttendance, 0, len(g.majors))
	for _, major := range g.majors {
		out = append(out, MajorAttendance{Major: major, Attendance: meanOf(attendance, g.rows[major])})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Attendance != out[j].Attendance {
			return out[i].Attendance > out[j].Attendance
		}
		return out[i].Major < out[j].Major
	})
	return out, nil
}

// MajorSummary returns the core metrics for one major. It wraps ErrNoRows
// when the major has no records.
func MajorSummary(t *dataset.Table, cols StudentColumns, major string) (*MajorMetrics, error) {
	g, err := groupByMajor(t, cols)
	if err != nil {
		return nil, err
	}
	idx := g.rows[major]
	if len(idx) == 0 {
		return nil, fmt.Errorf("major %q: %w", major, ErrNoRows)
	}

	attendance, err := t.Float(cols.Attendance)
	if err != nil {
		return nil, err
	}
	final, err := t.Float(cols.Final)
	if err != nil {
		return nil, err
	}
	hours, err := t.Float(cols.StudyHours)
	if err != nil {
		return nil, err
	}

	passed := 0
	for _, i := range idx {
		if final[i] >= PassMark {
			passed++
		}
	}
	return &MajorMetrics{
		Major:      major,
		Students:   len(idx),
		Attendance: meanOf(attendance, idx),
		Final:      meanOf(final, idx),
		PassRate:   float64(passed) / float64(len(idx)),
		StudyHours: meanOf(hours, idx),
	}, nil
}

// StudyScoreCorrelation is the Pearson correlation between weekly study
// hours and final score.
func StudyScoreCorrelation(t *dataset.Table, cols StudentColumns) (float64, error) {
	hours, err := t.Float(cols.StudyHours)
	if err != nil {
		return 0, err
	}
	final, err := t.Float(cols.Final)
	if err != nil {
		return 0, err
	}
	if len(hours) < 2 {
		return 0, fmt.Errorf("correlation needs two rows: %w", ErrNoRows)
	}
	r := stat.Correlation(hours, final, nil)
	if math.IsNaN(r) {
		return 0, ErrUndefinedCorrelation
	}
	return r, nil
}

// BuildReport computes every statistic for t. Rows missing any required
// column are dropped first; a focus major without records leaves
// Report.Focus nil rather than failing.
func BuildReport(t *dataset.Table, cols StudentColumns, focusMajor string) (*Report, error) {
	selected, err := t.Select(cols.Required()...)
	if err != nil {
		return nil, err
	}
	clean := selected.DropMissing()
	if clean.Len() == 0 {
		return nil, common.NewDataError("build report", common.ErrEmptyDataset)
	}

	report := &Report{
		GeneratedAt: time.Now(),
		FocusMajor:  focusMajor,
		Rows:        clean.Len(),
		Dropped:     selected.Len() - clean.Len(),
	}
	if report.GenderRatios, err = GenderRatioByMajor(clean, cols); err != nil {
		return nil, err
	}
	if report.Scores, err = StudyVsScoreByMajor(clean, cols); err != nil {
		return nil, err
	}
	if report.Attendance, err = AttendanceByMajor(clean, cols); err != nil {
		return nil, err
	}

	if report.Samples, err = studySamples(clean, cols); err != nil {
		return nil, err
	}
	switch r, err := StudyScoreCorrelation(clean, cols); {
	case err == nil:
		report.Correlation, report.HasCorrelation = r, true
	case errors.Is(err, ErrUndefinedCorrelation), errors.Is(err, ErrNoRows):
	default:
		return nil, err
	}

	if focusMajor != "" {
		focus, err := MajorSummary(clean, cols, focusMajor)
		switch {
		case err == nil:
			report.Focus = focus
		case !errors.Is(err, ErrNoRows):
			return nil, err
		}
	}
	return report, nil
}

func studySamples(t *dataset.Table, cols StudentColumns) ([]StudySample, error) {
	hours, err := t.Float(cols.StudyHours)
	if err != nil {
		return nil, err
	}
	final, err := t.Float(cols.Final)
	if err != nil {
		return nil, err
	}
	out := make([]StudySample, len(hours))
	for i := range hours {
		out[i] = StudySample{Hours: hours[i], Final: final[i]}
	}
	return out, nil
}
