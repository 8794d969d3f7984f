// Package analysis computes descriptive statistics over the student dataset
// and renders them for the terminal and as PNG charts.
package analysis

import (
	"errors"
	"time"

	"github.com/Veraticus/gradebook/internal/dataset"
)

var (
	// ErrNoRows is returned when a statistic has no records to work on.
	ErrNoRows = errors.New("no matching rows")
	// ErrUndefinedCorrelation is returned when a correlation has zero variance.
	ErrUndefinedCorrelation = errors.New("correlation undefined for constant column")
)

// PassMark is the final score at or above which a student passes.
const PassMark = 60.0

// DefaultFocusMajor is the major reported in detail when none is configured.
const DefaultFocusMajor = "Big Data Management"

// StudentColumns maps the statistics onto column names of a student table.
type StudentColumns struct {
	Major      string `mapstructure:"major"`
	Gender     string `mapstructure:"gender"`
	StudyHours string `mapstructure:"study_hours"`
	Attendance string `mapstructure:"attendance"`
	Midterm    string `mapstructure:"midterm"`
	Final      string `mapstructure:"final"`
	// Male and Female are the gender values counted in ratios.
	Male   string `mapstructure:"male"`
	Female string `mapstructure:"female"`
}

// DefaultStudentColumns matches the generated student dataset.
func DefaultStudentColumns() StudentColumns {
	return StudentColumns{
		Major:      dataset.ColMajor,
		Gender:     dataset.ColGender,
		StudyHours: dataset.ColStudyHours,
		Attendance: dataset.ColAttendance,
		Midterm:    dataset.ColMidterm,
		Final:      dataset.ColFinal,
		Male:       "male",
		Female:     "female",
	}
}

// Required lists the columns the statistics read.
func (c StudentColumns) Required() []string {
	return []string{c.Major, c.Gender, c.StudyHours, c.Attendance, c.Midterm, c.Final}
}

// GenderRatio is the gender split of one major.
type GenderRatio struct {
	Major  string
	Total  int
	Male   float64
	Female float64
}

// MajorScores holds per-major means rounded to two decimals.
type MajorScores struct {
	Major      string
	StudyHours float64
	Midterm    float64
	Final      float64
}

// MajorAttendance is the mean attendance rate of one major.
type MajorAttendance struct {
	Major      string
	Attendance float64
}

// MajorMetrics are the core indicators of a single major.
type MajorMetrics struct {
	Major      string
	Students   int
	Attendance float64
	Final      float64
	PassRate   float64
	StudyHours float64
}

// StudySample is one student's weekly study hours and final score.
type StudySample struct {
	Hours float64
	Final float64
}

// Report bundles every statistic computed for one table.
type Report struct {
	GeneratedAt  time.Time
	Focus        *MajorMetrics
	Source       string
	FocusMajor   string
	GenderRatios []GenderRatio
	Scores       []MajorScores
	Attendance   []MajorAttendance
	Samples      []StudySample
	Rows         int
	Dropped      int
	Correlation  float64
	// HasCorrelation is false when the correlation is undefined.
	HasCorrelation bool
	Synthetic      bool
}
