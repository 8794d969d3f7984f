package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/gradebook/internal/artifact"
	"github.com/Veraticus/gradebook/internal/features"
	"github.com/Veraticus/gradebook/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// predictionForm has one text input per raw model input.
type predictionForm struct {
	theme   themes.Theme
	err     error
	model   *artifact.Model
	specs   []features.Input
	inputs  []textinput.Model
	labels  []string
	proba   []float64
	label   string
	verdict string
	value   float64
	focus   int
	scored  bool
	editing bool
}

func newPredictionForm(model *artifact.Model, labels []string, theme themes.Theme) predictionForm {
	f := predictionForm{theme: theme, model: model, labels: labels}
	if model == nil || model.Schema == nil {
		return f
	}

	f.specs = model.Schema.Inputs
	f.inputs = make([]textinput.Model, len(f.specs))
	for i, spec := range f.specs {
		in := textinput.New()
		in.CharLimit = 64
		in.Width = 30
		in.Prompt = "› "
		if spec.Categorical() {
			in.Placeholder = strings.Join(spec.Categories, " | ")
			in.ShowSuggestions = true
			in.SetSuggestions(spec.Categories)
		} else {
			in.Placeholder = "number"
		}
		f.inputs[i] = in
	}
	f.editing = true
	f.setFocus(0)
	return f
}

// Available reports whether a model is loaded.
func (f predictionForm) Available() bool {
	return f.model != nil && len(f.inputs) > 0
}

// Editing reports whether keystrokes go to the inputs.
func (f predictionForm) Editing() bool {
	return f.editing && f.Available()
}

// Values returns the form contents keyed by input name.
func (f predictionForm) Values() map[string]string {
	out := make(map[string]string, len(f.inputs))
	for i, in := range f.inputs {
		out[f.specs[i].Name] = strings.TrimSpace(in.Value())
	}
	return out
}

func (f *predictionForm) setFocus(i int) {
	if len(f.inputs) == 0 {
		return
	}
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		if j == f.focus && f.editing {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *predictionForm) setEditing(editing bool) {
	f.editing = editing
	f.setFocus(f.focus)
}

func (f *predictionForm) clear() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.label, f.proba, f.err = "", nil, nil
	f.value, f.verdict, f.scored = 0, "", false
	f.setFocus(0)
}

// Update routes a message to the form. The caller has already handled
// global keys.
func (f predictionForm) Update(msg tea.Msg, keys KeyMap) (predictionForm, tea.Cmd) {
	if !f.Available() {
		return f, nil
	}

	switch msg := msg.(type) {
	case predictionMsg:
		f.err = msg.err
		f.label, f.proba = msg.label, msg.proba
		f.value, f.verdict, f.scored = msg.value, msg.verdict, msg.scored
		return f, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Done):
			f.setEditing(false)
			return f, nil
		case !f.editing && key.Matches(msg, keys.Edit):
			f.setEditing(true)
			return f, textinput.Blink
		case key.Matches(msg, keys.NextField):
			f.setFocus(f.focus + 1)
			return f, nil
		case key.Matches(msg, keys.PrevField):
			f.setFocus(f.focus - 1)
			return f, nil
		case key.Matches(msg, keys.Clear):
			f.clear()
			return f, nil
		case key.Matches(msg, keys.Predict):
			f.err = nil
			return f, predict(f)
		}
	}

	if !f.editing {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// View renders the form and the latest result.
func (f predictionForm) View(width int) string {
	t := f.theme
	if !f.Available() {
		return t.StatusWarning.Render("Model unavailable.") + "\n" +
			t.Muted.Render("Train one with `gradebook train` and restart the dashboard.")
	}

	rows := make([]string, 0, len(f.inputs))
	for i, in := range f.inputs {
		label := t.Label
		if i == f.focus && f.editing {
			label = t.FocusedLabel
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, label.Render(f.specs[i].Name), in.View()))
	}
	form := strings.Join(rows, "\n")

	var result string
	switch {
	case f.err != nil:
		result = t.StatusError.Render("✗ " + f.err.Error())
	case f.scored:
		result = t.StatusSuccess.Render(fmt.Sprintf("Predicted %s: %.1f", f.model.Target, f.value))
		if f.verdict != "" {
			style := t.StatusSuccess
			if f.verdict == "fail" {
				style = t.StatusError
			}
			result += " " + style.Render("("+f.verdict+")")
		}
	case f.label != "":
		result = t.StatusSuccess.Render(fmt.Sprintf("Predicted %s: %s", f.model.Target, f.label)) +
			"\n\n" + f.renderProba(width)
	default:
		result = t.Muted.Render("Fill in every field and press Enter.")
	}

	return form + "\n\n" + result
}

func (f predictionForm) renderProba(width int) string {
	barWidth := min(max(width-40, 10), 40)
	lines := make([]string, 0, len(f.proba))
	for i, p := range f.proba {
		name := fmt.Sprintf("#%d", i)
		if label, ok := features.Lookup(f.labels, i); ok {
			name = label
		}
		filled := min(max(int(p*float64(barWidth)+0.5), 0), barWidth)
		bar := f.theme.ProgressFull.Render(strings.Repeat("█", filled)) +
			f.theme.ProgressEmpty.Render(strings.Repeat("░", barWidth-filled))
		lines = append(lines, fmt.Sprintf("%-14s %s %6.2f%%", name, bar, p*100))
	}
	return strings.Join(lines, "\n")
}
