package analysis

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// studentTable has three majors with hand-checkable statistics.
func studentTable(t *testing.T) *dataset.Table {
	t.Helper()
	cols := DefaultStudentColumns()
	table, err := dataset.NewTable(
		[]string{"student_id", cols.Major, cols.Gender, cols.StudyHours, cols.Attendance, cols.Midterm, cols.Final},
		[][]string{
			{"1", "Big Data Management", "male", "10", "0.80", "70", "55"},
			{"2", "Big Data Management", "female", "20", "0.90", "80", "75"},
			{"3", "Big Data Management", "male", "30", "1.00", "90", "95"},
			{"4", "Computer Science", "female", "15", "0.70", "60", "65"},
			{"5", "Computer Science", "female", "25", "0.90", "70", "85"},
			{"6", "Software Engineering", "male", "5", "0.60", "50", "50"},
		})
	require.NoError(t, err)
	return table
}

func TestGenderRatioByMajor(t *testing.T) {
	ratios, err := GenderRatioByMajor(studentTable(t), DefaultStudentColumns())
	require.NoError(t, err)
	require.Len(t, ratios, 3)

	assert.Equal(t, "Software Engineering", ratios[0].Major)
	assert.InDelta(t, 1.0, ratios[0].Male, 1e-9)
	assert.Equal(t, "Big Data Management", ratios[1].Major)
	assert.InDelta(t, 2.0/3, ratios[1].Male, 1e-9)
	assert.InDelta(t, 1.0/3, ratios[1].Female, 1e-9)
	assert.Equal(t, 3, ratios[1].Total)
	assert.Equal(t, "Computer Science", ratios[2].Major)
	assert.InDelta(t, 0.0, ratios[2].Male, 1e-9)
}

func TestStudyVsScoreByMajor(t *testing.T) {
	scores, err := StudyVsScoreByMajor(studentTable(t), DefaultStudentColumns())
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, MajorScores{Major: "Big Data Management", StudyHours: 20, Midterm: 80, Final: 75}, scores[0])
	assert.Equal(t, MajorScores{Major: "Computer Science", StudyHours: 20, Midterm: 65, Final: 75}, scores[1])
	assert.Equal(t, "Software Engineering", scores[2].Major)
}

func TestStudyVsScoreRoundsToTwoDecimals(t *testing.T) {
	cols := DefaultStudentColumns()
	table, err := dataset.NewTable(cols.Required(), [][]string{
		{"AI", "male", "10", "0.9", "70", "60"},
		{"AI", "male", "10", "0.9", "70", "61"},
		{"AI", "male", "10", "0.9", "71", "61"},
	})
	require.NoError(t, err)

	scores, err := StudyVsScoreByMajor(table, cols)
	require.NoError(t, err)
	assert.Equal(t, 70.33, scores[0].Midterm)
	assert.Equal(t, 60.67, scores[0].Final)
}

func TestAttendanceByMajor(t *testing.T) {
	attendance, err := AttendanceByMajor(studentTable(t), DefaultStudentColumns())
	require.NoError(t, err)
	require.Len(t, attendance, 3)

	assert.Equal(t, "Big Data Management", attendance[0].Major)
	assert.InDelta(t, 0.9, attendance[0].Attendance, 1e-9)
	assert.InDelta(t, 0.8, attendance[1].Attendance, 1e-9)
	assert.InDelta(t, 0.6, attendance[2].Attendance, 1e-9)
}

func TestMajorSummary(t *testing.T) {
	m, err := MajorSummary(studentTable(t), DefaultStudentColumns(), "Big Data Management")
	require.NoError(t, err)

	assert.Equal(t, 3, m.Students)
	assert.InDelta(t, 0.9, m.Attendance, 1e-9)
	assert.InDelta(t, 75, m.Final, 1e-9)
	assert.InDelta(t, 2.0/3, m.PassRate, 1e-9)
	assert.InDelta(t, 20, m.StudyHours, 1e-9)

	_, err = MajorSummary(studentTable(t), DefaultStudentColumns(), "Philosophy")
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestStudyScoreCorrelation(t *testing.T) {
	r, err := StudyScoreCorrelation(studentTable(t), DefaultStudentColumns())
	require.NoError(t, err)
	assert.Greater(t, r, 0.9)
	assert.LessOrEqual(t, r, 1.0)

	cols := DefaultStudentColumns()
	flat, err := dataset.NewTable(cols.Required(), [][]string{
		{"AI", "male", "10", "0.9", "70", "60"},
		{"AI", "male", "10", "0.9", "70", "80"},
	})
	require.NoError(t, err)
	_, err = StudyScoreCorrelation(flat, cols)
	assert.ErrorIs(t, err, ErrUndefinedCorrelation)
}

func TestStatsRejectNonNumericCells(t *testing.T) {
	cols := DefaultStudentColumns()
	table, err := dataset.NewTable(cols.Required(), [][]string{
		{"AI", "male", "ten", "0.9", "70", "60"},
	})
	require.NoError(t, err)

	_, err = StudyVsScoreByMajor(table, cols)
	var dataErr *common.DataError
	assert.True(t, errors.As(err, &dataErr))
}

func TestBuildReport(t *testing.T) {
	table := studentTable(t)
	cols := DefaultStudentColumns()

	report, err := BuildReport(table, cols, DefaultFocusMajor)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Rows)
	assert.Zero(t, report.Dropped)
	assert.Len(t, report.GenderRatios, 3)
	assert.Len(t, report.Scores, 3)
	assert.Len(t, report.Attendance, 3)
	assert.Len(t, report.Samples, 6)
	assert.True(t, report.HasCorrelation)
	require.NotNil(t, report.Focus)
	assert.Equal(t, 3, report.Focus.Students)
}

func TestBuildReportDropsMissingAndToleratesAbsentFocus(t *testing.T) {
	cols := DefaultStudentColumns()
	table, err := dataset.NewTable(cols.Required(), [][]string{
		{"AI", "male", "10", "0.9", "70", "60"},
		{"AI", "female", "", "0.8", "75", "70"},
		{"AI", "female", "20", "0.8", "75", "80"},
	})
	require.NoError(t, err)

	report, err := BuildReport(table, cols, "Big Data Management")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 1, report.Dropped)
	assert.Nil(t, report.Focus)
}

func TestBuildReportErrors(t *testing.T) {
	cols := DefaultStudentColumns()

	t.Run("missing column", func(t *testing.T) {
		table, err := dataset.NewTable([]string{"major"}, [][]string{{"AI"}})
		require.NoError(t, err)
		_, err = BuildReport(table, cols, "")
		assert.ErrorIs(t, err, common.ErrUnknownColumn)
	})

	t.Run("nothing left after dropping", func(t *testing.T) {
		table, err := dataset.NewTable(cols.Required(), [][]string{
			{"AI", "male", "NA", "0.9", "70", "60"},
		})
		require.NoError(t, err)
		_, err = BuildReport(table, cols, "")
		assert.ErrorIs(t, err, common.ErrEmptyDataset)
	})
}

func TestBuildReportOnGeneratedStudents(t *testing.T) {
	table := dataset.GenerateStudents(200, rand.New(rand.NewSource(42)))

	report, err := BuildReport(table, DefaultStudentColumns(), DefaultFocusMajor)
	require.NoError(t, err)

	assert.Equal(t, 200, report.Rows)
	assert.Len(t, report.Scores, len(dataset.Majors))
	total := 0
	for _, g := range report.GenderRatios {
		total += g.Total
		assert.InDelta(t, 1.0, g.Male+g.Female, 1e-9)
	}
	assert.Equal(t, 200, total)
	for i := 1; i < len(report.Attendance); i++ {
		assert.GreaterOrEqual(t, report.Attendance[i-1].Attendance, report.Attendance[i].Attendance)
	}
}
