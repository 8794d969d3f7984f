package analysis

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestRepeatChar(t *testing.T) {
	tests := []struct {
		name     string
		char     string
		expected string
		n        int
	}{
		{name: "zero repetitions", char: "x", n: 0, expected: ""},
		{name: "negative repetitions", char: "x", n: -5, expected: ""},
		{name: "single repetition", char: "x", n: 1, expected: "x"},
		{name: "multiple repetitions", char: "█", n: 5, expected: "█████"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repeatChar(tt.char, tt.n))
		})
	}
}

func TestStyles_RenderProgressBar(t *testing.T) {
	styles := NewStyles()

	tests := []struct {
		name     string
		progress float64
		width    int
		filled   int
		total    int
	}{
		{name: "empty", progress: 0, width: 10, filled: 0, total: 10},
		{name: "half", progress: 0.5, width: 10, filled: 5, total: 10},
		{name: "full", progress: 1, width: 10, filled: 10, total: 10},
		{name: "over full clamps", progress: 1.7, width: 10, filled: 10, total: 10},
		{name: "negative clamps", progress: -0.3, width: 10, filled: 0, total: 10},
		{name: "default width", progress: 0.5, width: 0, filled: 15, total: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := styles.RenderProgressBar(tt.progress, tt.width)
			assert.Equal(t, tt.total, utf8.RuneCountInString(bar))
			filled := 0
			for _, r := range bar {
				if r == '█' {
					filled++
				}
			}
			assert.Equal(t, tt.filled, filled)
		})
	}
}

func TestStyles_ForRateAndScore(t *testing.T) {
	styles := NewStyles()

	assert.Equal(t, styles.Success.Render("x"), styles.ForRate(0.95).Render("x"))
	assert.Equal(t, styles.Warning.Render("x"), styles.ForRate(0.75).Render("x"))
	assert.Equal(t, styles.Error.Render("x"), styles.ForRate(0.5).Render("x"))

	assert.Equal(t, styles.Success.Render("x"), styles.ForScore(85).Render("x"))
	assert.Equal(t, styles.Warning.Render("x"), styles.ForScore(60).Render("x"))
	assert.Equal(t, styles.Error.Render("x"), styles.ForScore(59.9).Render("x"))
}

func TestStyles_WithWidth(t *testing.T) {
	styles := NewStyles()
	narrow := styles.WithWidth(60)

	assert.Equal(t, 56, narrow.Box.GetWidth())
	assert.Equal(t, 0, styles.Box.GetWidth())
	assert.Equal(t, 0, styles.WithWidth(120).Box.GetWidth())
}
