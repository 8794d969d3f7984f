package tui

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/testutil"
	"github.com/Veraticus/gradebook/internal/training"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(m *Model, values map[string]string) {
	for i, spec := range m.prediction.specs {
		m.prediction.inputs[i].SetValue(values[spec.Name])
	}
}

func gentoo() map[string]string {
	return map[string]string{
		dataset.ColIsland:        "Biscoe",
		dataset.ColBillLength:    "47.5",
		dataset.ColBillDepth:     "15.0",
		dataset.ColFlipperLength: "217",
		dataset.ColBodyMass:      "5100",
		dataset.ColSex:           "male",
	}
}

func TestPredictionWithoutModel(t *testing.T) {
	m := New(WithModelError(errors.New("open model: no such file")))
	m, _ = send(t, m, keyRunes("3"))

	view := stripANSI(m.View())
	assert.Contains(t, view, "Model unavailable")

	m, _ = send(t, m, keyRunes("1"))
	assert.Contains(t, stripANSI(m.View()), "unavailable: open model: no such file")
}

func TestPredictionForm(t *testing.T) {
	model, labels := testutil.TrainedPenguinModel(t)
	m := New(WithModel(model, labels))
	m, _ = send(t, m, keyRunes("3"))
	require.True(t, m.prediction.Editing())
	assert.Len(t, m.prediction.inputs, len(testutil.PenguinPredictors))

	view := stripANSI(m.View())
	assert.Contains(t, view, "Predict species")
	assert.Contains(t, view, "Biscoe | Dream | Torgersen")

	// Typing goes to the form, so "q" and "2" do not quit or switch pages.
	m, _ = send(t, m, keyRunes("q"))
	m, _ = send(t, m, keyRunes("2"))
	assert.Equal(t, PagePrediction, m.Page())
	assert.Equal(t, "q2", m.prediction.inputs[0].Value())

	fill(&m, gentoo())
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)

	require.NoError(t, m.prediction.err)
	assert.True(t, slices.Contains(labels, m.prediction.label))
	assert.Len(t, m.prediction.proba, len(labels))
	view = stripANSI(m.View())
	assert.Contains(t, view, "Predicted species: "+m.prediction.label)
	for _, l := range labels {
		assert.Contains(t, view, l)
	}
}

func TestPredictionScoreAndVerdict(t *testing.T) {
	model := testutil.TrainedScoreModel(t)
	m := New(WithModel(model, []string{}))
	assert.Contains(t, stripANSI(m.View()), "predicting final_score (score)")

	m, _ = send(t, m, keyRunes("3"))
	require.True(t, m.prediction.Editing())

	row := testutil.Students(t, 120, 3).Record(0).Map()
	fill(&m, row)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m = drain(t, m, cmd)

	require.NoError(t, m.prediction.err)
	require.True(t, m.prediction.scored)
	assert.Empty(t, m.prediction.label)

	want := "fail"
	if m.prediction.value >= training.PassMark {
		want = "pass"
	}
	assert.Equal(t, want, m.prediction.verdict)

	view := stripANSI(m.View())
	assert.Contains(t, view, fmt.Sprintf("Predicted final_score: %.1f (%s)", m.prediction.value, want))

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.False(t, m.prediction.scored)
}

func TestPredictionErrorsShownInline(t *testing.T) {
	model, labels := testutil.TrainedPenguinModel(t)
	m := New(WithModel(model, labels))
	m, _ = send(t, m, keyRunes("3"))

	values := gentoo()
	values[dataset.ColIsland] = "Anvers"
	fill(&m, values)
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)
	assert.Contains(t, stripANSI(m.View()), "unknown category")

	values = gentoo()
	values[dataset.ColBodyMass] = "heavy"
	fill(&m, values)
	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)
	assert.Contains(t, stripANSI(m.View()), "✗")
	assert.Empty(t, m.prediction.label)
}

func TestPredictionEditingToggle(t *testing.T) {
	model, labels := testutil.TrainedPenguinModel(t)
	m := New(WithModel(model, labels))
	m, _ = send(t, m, keyRunes("3"))

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.prediction.focus)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, len(m.prediction.inputs)-1, m.prediction.focus)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.prediction.Editing())

	// With editing off, page keys work again.
	m, _ = send(t, m, keyRunes("1"))
	assert.Equal(t, PageHome, m.Page())

	m, _ = send(t, m, keyRunes("3"))
	m, _ = send(t, m, keyRunes("e"))
	assert.True(t, m.prediction.Editing())

	fill(&m, gentoo())
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	for _, v := range m.prediction.Values() {
		assert.Empty(t, v)
	}
}
