package analysis

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/Veraticus/gradebook/internal/common"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Chart file names written by RenderCharts.
const (
	ChartGenderRatio  = "gender_ratio.png"
	ChartStudyScores  = "study_scores.png"
	ChartAttendance   = "attendance.png"
	ChartStudyVsFinal = "study_vs_final.png"
)

var (
	colorPrimary = color.RGBA{R: 0x5B, G: 0x8D, B: 0xEF, A: 0xFF}
	colorAccent  = color.RGBA{R: 0xF2, G: 0x8D, B: 0xB2, A: 0xFF}
	colorTeal    = color.RGBA{R: 0x4E, G: 0xCD, B: 0xC4, A: 0xFF}
	colorLine    = color.RGBA{R: 0xFF, G: 0x6B, B: 0x6B, A: 0xFF}
)

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch
	barWidth    = vg.Length(18)
)

// RenderCharts writes the report's charts as PNG files into dir and returns
// their paths. Charts without data are skipped.
func RenderCharts(report *Report, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, common.NewIOError("create chart directory", dir, err)
	}

	charts := []struct {
		build func(*Report) (*plot.Plot, error)
		name  string
		empty bool
	}{
		{name: ChartGenderRatio, build: genderRatioChart, empty: len(report.GenderRatios) == 0},
		{name: ChartStudyScores, build: studyScoresChart, empty: len(report.Scores) == 0},
		{name: ChartAttendance, build: attendanceChart, empty: len(report.Attendance) == 0},
		{name: ChartStudyVsFinal, build: studyVsFinalChart, empty: len(report.Samples) == 0},
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		if c.empty {
			slog.Debug("Skipping empty chart", "chart", c.name)
			continue
		}
		p, err := c.build(report)
		if err != nil {
			return paths, fmt.Errorf("build %s: %w", c.name, err)
		}
		path := filepath.Join(dir, c.name)
		if err := p.Save(chartWidth, chartHeight, path); err != nil {
			return paths, common.NewIOError("save chart", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func newPlot(title, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = y
	p.X.Tick.Label.Rotation = math.Pi / 8
	p.Legend.Top = true
	return p
}

func genderRatioChart(r *Report) (*plot.Plot, error) {
	p := newPlot("Gender ratio by major", "Share of students")
	names := make([]string, len(r.GenderRatios))
	male := make(plotter.Values, len(r.GenderRatios))
	female := make(plotter.Values, len(r.GenderRatios))
	for i, g := range r.GenderRatios {
		names[i], male[i], female[i] = g.Major, g.Male, g.Female
	}

	maleBars, err := plotter.NewBarChart(male, barWidth)
	if err != nil {
		return nil, err
	}
	maleBars.Color = colorPrimary
	maleBars.Offset = -barWidth / 2

	femaleBars, err := plotter.NewBarChart(female, barWidth)
	if err != nil {
		return nil, err
	}
	femaleBars.Color = colorAccent
	femaleBars.Offset = barWidth / 2

	p.Add(maleBars, femaleBars)
	p.Legend.Add("male", maleBars)
	p.Legend.Add("female", femaleBars)
	p.NominalX(names...)
	p.Y.Max = 1
	return p, nil
}

func studyScoresChart(r *Report) (*plot.Plot, error) {
	p := newPlot("Study time and scores by major", "Hours / score")
	names := make([]string, len(r.Scores))
	hours := make(plotter.Values, len(r.Scores))
	midterm := make(plotter.XYs, len(r.Scores))
	final := make(plotter.XYs, len(r.Scores))
	for i, s := range r.Scores {
		names[i], hours[i] = s.Major, s.StudyHours
		midterm[i] = plotter.XY{X: float64(i), Y: s.Midterm}
		final[i] = plotter.XY{X: float64(i), Y: s.Final}
	}

	bars, err := plotter.NewBarChart(hours, barWidth*2)
	if err != nil {
		return nil, err
	}
	bars.Color = colorTeal

	midLine, midPoints, err := plotter.NewLinePoints(midterm)
	if err != nil {
		return nil, err
	}
	midLine.Color = colorPrimary
	midPoints.Color = colorPrimary

	finalLine, finalPoints, err := plotter.NewLinePoints(final)
	if err != nil {
		return nil, err
	}
	finalLine.Color = colorLine
	finalPoints.Color = colorLine

	p.Add(bars, midLine, midPoints, finalLine, finalPoints)
	p.Legend.Add("weekly study hours", bars)
	p.Legend.Add("midterm", midLine, midPoints)
	p.Legend.Add("final", finalLine, finalPoints)
	p.NominalX(names...)
	p.Y.Min = 0
	return p, nil
}

func attendanceChart(r *Report) (*plot.Plot, error) {
	p := newPlot("Average attendance by major", "Attendance rate")
	names := make([]string, len(r.Attendance))
	values := make(plotter.Values, len(r.Attendance))
	for i, a := range r.Attendance {
		names[i], values[i] = a.Major, a.Attendance
	}

	bars, err := plotter.NewBarChart(values, barWidth*2)
	if err != nil {
		return nil, err
	}
	bars.Color = colorPrimary

	p.Add(bars)
	p.NominalX(names...)
	p.Y.Min = 0
	p.Y.Max = 1
	return p, nil
}

func studyVsFinalChart(r *Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Weekly study hours vs final score"
	p.X.Label.Text = "Weekly study hours"
	p.Y.Label.Text = "Final score"

	pts := make(plotter.XYs, len(r.Samples))
	xs := make([]float64, len(r.Samples))
	ys := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		pts[i] = plotter.XY{X: s.Hours, Y: s.Final}
		xs[i], ys[i] = s.Hours, s.Final
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.Color = colorPrimary
	p.Add(scatter)

	// Least squares trend line over the observed range.
	if len(xs) >= 2 {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		if !math.IsNaN(alpha) && !math.IsNaN(beta) {
			lo, hi := minMax(xs)
			line, err := plotter.NewLine(plotter.XYs{
				{X: lo, Y: alpha + beta*lo},
				{X: hi, Y: alpha + beta*hi},
			})
			if err != nil {
				return nil, err
			}
			line.Color = colorLine
			line.Width = vg.Points(2)
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("trend (slope %.2f)", beta), line)
		}
	}
	return p, nil
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
