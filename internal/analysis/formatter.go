package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// CLIFormatter renders reports for terminal display.
type CLIFormatter struct {
	styles *Styles
}

// NewCLIFormatter creates a new CLI formatter with default styles.
func NewCLIFormatter() *CLIFormatter {
	return &CLIFormatter{
		styles: NewStyles(),
	}
}

// WithWidth returns a formatter whose boxes fit a terminal of the given width.
func (f *CLIFormatter) WithWidth(width int) *CLIFormatter {
	return &CLIFormatter{styles: f.styles.WithWidth(width)}
}

// FormatReport renders every section of the report.
func (f *CLIFormatter) FormatReport(report *Report) string {
	if report == nil {
		return f.styles.Error.Render("No report available")
	}

	sections := []string{
		f.formatHeader(report),
		f.FormatGenderRatios(report.GenderRatios),
		f.FormatScores(report.Scores),
		f.FormatAttendance(report.Attendance),
		f.formatCorrelation(report),
	}
	if focus := f.formatFocus(report); focus != "" {
		sections = append(sections, focus)
	}
	return strings.Join(sections, "\n\n")
}

func (f *CLIFormatter) formatHeader(report *Report) string {
	title := f.styles.Title.Render("📈 Major Analysis")

	source := report.Source
	if source == "" {
		source = "in-memory table"
	}
	if report.Synthetic {
		source += " (generated sample data)"
	}
	lines := []string{
		title,
		f.styles.Subtitle.Render(fmt.Sprintf("Source: %s", source)),
		f.styles.Subtle.Render(fmt.Sprintf("%d students, %d rows dropped for missing values · Generated %s",
			report.Rows, report.Dropped, report.GeneratedAt.Format(time.RFC3339))),
	}
	return strings.Join(lines, "\n")
}

// FormatGenderRatios renders the per-major gender split.
func (f *CLIFormatter) FormatGenderRatios(ratios []GenderRatio) string {
	width := majorWidth(len("Major"), func(yield func(string)) {
		for _, r := range ratios {
			yield(r.Major)
		}
	})

	var b strings.Builder
	b.WriteString(f.styles.Header.Render(fmt.Sprintf("%-*s  %6s  %6s  %5s", width, "Major", "Male", "Female", "Total")))
	for _, r := range ratios {
		fmt.Fprintf(&b, "\n%-*s  %5.1f%%  %5.1f%%  %5d  %s",
			width, r.Major, r.Male*100, r.Female*100, r.Total,
			f.styles.RenderSplitBar(r.Male, r.Female, 20))
	}
	return f.styles.RenderBox(b.String(), "1. Gender ratio by major", f.styles.Box)
}

// FormatScores renders study hours against exam means.
func (f *CLIFormatter) FormatScores(scores []MajorScores) string {
	width := majorWidth(len("Major"), func(yield func(string)) {
		for _, s := range scores {
			yield(s.Major)
		}
	})

	var b strings.Builder
	b.WriteString(f.styles.Header.Render(fmt.Sprintf("%-*s  %11s  %7s  %7s", width, "Major", "Study hours", "Midterm", "Final")))
	for _, s := range scores {
		fmt.Fprintf(&b, "\n%-*s  %11.2f  %s  %s",
			width, s.Major, s.StudyHours,
			f.styles.ForScore(s.Midterm).Render(fmt.Sprintf("%7.2f", s.Midterm)),
			f.styles.ForScore(s.Final).Render(fmt.Sprintf("%7.2f", s.Final)))
	}
	return f.styles.RenderBox(b.String(), "2. Study time and scores by major", f.styles.Box)
}

// FormatAttendance renders mean attendance per major as bars.
func (f *CLIFormatter) FormatAttendance(attendance []MajorAttendance) string {
	width := majorWidth(len("Major"), func(yield func(string)) {
		for _, a := range attendance {
			yield(a.Major)
		}
	})

	lines := make([]string, 0, len(attendance))
	for _, a := range attendance {
		bar := f.styles.ProgressFill.Render(f.styles.RenderProgressBar(a.Attendance, 25))
		lines = append(lines, fmt.Sprintf("%-*s  %s  %s", width, a.Major, bar,
			f.styles.ForRate(a.Attendance).Render(fmt.Sprintf("%5.1f%%", a.Attendance*100))))
	}
	return f.styles.RenderBox(strings.Join(lines, "\n"), "3. Attendance by major", f.styles.Box)
}

func (f *CLIFormatter) formatCorrelation(report *Report) string {
	if !report.HasCorrelation {
		return f.styles.Subtle.Render("Study hours vs final score: correlation undefined")
	}
	return fmt.Sprintf("%s %s %s",
		f.styles.Normal.Render("Study hours vs final score: r ="),
		f.styles.Value.Render(fmt.Sprintf("%.3f", report.Correlation)),
		f.styles.Subtle.Render("("+describeCorrelation(report.Correlation)+")"))
}

func (f *CLIFormatter) formatFocus(report *Report) string {
	if report.FocusMajor == "" {
		return ""
	}
	title := fmt.Sprintf("4. %s core metrics", report.FocusMajor)
	if report.Focus == nil {
		return f.styles.RenderBox(f.styles.Subtle.Render(fmt.Sprintf("No records for %q", report.FocusMajor)), title, f.styles.FocusBox)
	}
	return f.styles.RenderBox(f.FormatMajorMetrics(report.Focus), title, f.styles.FocusBox)
}

// FormatMajorMetrics renders the core indicators of a single major.
func (f *CLIFormatter) FormatMajorMetrics(m *MajorMetrics) string {
	rows := [][2]string{
		{"Students", fmt.Sprintf("%d", m.Students)},
		{"Average attendance", f.styles.ForRate(m.Attendance).Render(fmt.Sprintf("%.1f%%", m.Attendance*100))},
		{"Average final score", f.styles.ForScore(m.Final).Render(fmt.Sprintf("%.1f", m.Final))},
		{"Pass rate", f.styles.ForRate(m.PassRate).Render(fmt.Sprintf("%.1f%%", m.PassRate*100))},
		{"Average study hours", fmt.Sprintf("%.1f h/week", m.StudyHours)},
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("%-20s %s", r[0], r[1])
	}
	return strings.Join(lines, "\n")
}

func describeCorrelation(r float64) string {
	a := r
	if a < 0 {
		a = -a
	}
	strength := "negligible"
	switch {
	case a >= 0.7:
		strength = "strong"
	case a >= 0.4:
		strength = "moderate"
	case a >= 0.1:
		strength = "weak"
	}
	if strength == "negligible" {
		return strength
	}
	if r < 0 {
		return strength + " negative"
	}
	return strength + " positive"
}

func majorWidth(minWidth int, each func(yield func(string))) int {
	width := minWidth
	each(func(s string) {
		width = max(width, lipgloss.Width(s))
	})
	return width
}
