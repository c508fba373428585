// ABOUTME: Interactive TUI wizard for configuring the embedding provider.
// ABOUTME: 3-step bubbletea model collecting API URL, model name, and an optional API key.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/ctlmatch/internal/config"
	"github.com/2389-research/ctlmatch/internal/embeddings"
)

// Defaults offered when a field is left empty.
var (
	DefaultAPIURL = config.Default().Embedder.APIURL
	DefaultModel  = config.Default().Embedder.Model
)

// Step represents the current wizard step.
type Step int

const (
	StepAPIURL Step = iota
	StepModel
	StepAPIKey
	StepValidating
	StepDone
	StepFailed
)

// validationResultMsg carries the result of an async validation attempt.
type validationResultMsg struct {
	err error
}

// ValidateFn checks an embedding endpoint with the entered settings.
type ValidateFn func(ctx context.Context, apiURL, apiKey, model string) error

// cancelHolder is shared by pointer so every copy of the value-receiver model
// sees the cancel func of the validation in flight.
type cancelHolder struct {
	cancel context.CancelFunc
}

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step          Step
	inputs        [3]textinput.Model
	spinner       spinner.Model
	validateFn    ValidateFn
	cancelCtx     *cancelHolder
	validationErr error
	quitting      bool
}

var (
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	stepStyle    = lipgloss.NewStyle().Bold(true)
	promptStyle  = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
)

// NewSetupModel creates a new setup wizard model, pre-filling with existing config values.
func NewSetupModel(apiURL, model, apiKey string) SetupModel {
	urlInput := textinput.New()
	urlInput.Placeholder = DefaultAPIURL
	urlInput.Focus()
	urlInput.Width = 50
	urlInput.SetValue(apiURL)

	modelInput := textinput.New()
	modelInput.Placeholder = DefaultModel
	modelInput.Width = 50
	modelInput.SetValue(model)

	keyInput := textinput.New()
	keyInput.Placeholder = "leave empty for local servers"
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.Width = 50
	keyInput.SetValue(apiKey)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return SetupModel{
		step:       StepAPIURL,
		inputs:     [3]textinput.Model{urlInput, modelInput, keyInput},
		spinner:    s,
		validateFn: embeddings.ValidateConnection,
		cancelCtx:  &cancelHolder{},
	}
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case validationResultMsg:
		return m.finishValidation(msg.err)
	case spinner.TickMsg:
		if m.step != StepValidating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m SetupModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEscape {
		return m.abort()
	}
	switch {
	case m.step <= StepAPIKey:
		if msg.Type == tea.KeyEnter {
			return m.commitInput()
		}
		var cmd tea.Cmd
		m.inputs[m.step], cmd = m.inputs[m.step].Update(msg)
		return m, cmd
	case m.step == StepFailed:
		return m.handleFailedKey(msg.String())
	}
	return m, nil
}

// abort stops any validation in flight and leaves without saving.
func (m SetupModel) abort() (tea.Model, tea.Cmd) {
	m.quitting = true
	if cancel := m.cancelCtx.cancel; cancel != nil {
		cancel()
	}
	return m, tea.Quit
}

// commitInput applies the current step's default and moves to the next step.
func (m SetupModel) commitInput() (tea.Model, tea.Cmd) {
	cur := &m.inputs[m.step]
	cur.Blur()

	switch m.step {
	case StepAPIURL:
		url := strings.TrimRight(strings.TrimSpace(cur.Value()), "/")
		if url == "" {
			url = DefaultAPIURL
		}
		cur.SetValue(url)
	case StepModel:
		if strings.TrimSpace(cur.Value()) == "" {
			cur.SetValue(DefaultModel)
		}
	case StepAPIKey:
		return m.validate()
	}

	m.step++
	m.inputs[m.step].Focus()
	return m, textinput.Blink
}

func (m SetupModel) handleFailedKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "r":
		m.validationErr = nil
		return m.validate()
	case "s":
		m.step = StepDone
		return m, tea.Quit
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m SetupModel) finishValidation(err error) (tea.Model, tea.Cmd) {
	m.cancelCtx.cancel = nil
	if err != nil {
		m.validationErr = err
		m.step = StepFailed
		return m, nil
	}
	m.step = StepDone
	return m, tea.Quit
}

func (m SetupModel) validate() (tea.Model, tea.Cmd) {
	m.step = StepValidating
	return m, tea.Batch(m.startValidation(), m.spinner.Tick)
}

func (m SetupModel) startValidation() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelCtx.cancel = cancel
	apiURL, model, apiKey := m.Result()
	fn := m.validateFn
	return func() tea.Msg {
		return validationResultMsg{err: fn(ctx, apiURL, apiKey, model)}
	}
}

// inputSteps describes the three input steps in order.
var inputSteps = [3]struct {
	label string
	hint  string
}{
	{"API URL", "(OpenAI-compatible base URL, press Enter for default)"},
	{"Model", "(press Enter for default)"},
	{"API Key", "(optional for local servers)"},
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   CTLMATCH"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Configure the embedding API used to compare catalogs.\n\n")

	switch m.step {
	case StepAPIURL, StepModel, StepAPIKey:
		idx := int(m.step)
		m.writeSummary(&b, idx)
		if idx > 0 {
			b.WriteString("\n")
		}
		b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d: %s", idx+1, len(inputSteps), inputSteps[idx].label)))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render(inputSteps[idx].hint))
		b.WriteString("\n")
		b.WriteString(m.inputs[idx].View())
		b.WriteString("\n")

	case StepValidating:
		m.writeSummary(&b, len(inputSteps))
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" Validating connection...\n")

	case StepDone:
		b.WriteString(successStyle.Render("✓ Connected!"))
		b.WriteString("\n")

	case StepFailed:
		errMsg := "unknown error"
		if m.validationErr != nil {
			errMsg = m.validationErr.Error()
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Validation failed: %s", errMsg)))
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("[r]etry  [s]ave anyway  [q]uit"))
		b.WriteString("\n")
	}

	return b.String()
}

// writeSummary lists the values entered in the first n steps, masking the key.
func (m SetupModel) writeSummary(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		val := m.inputs[i].Value()
		if Step(i) == StepAPIKey {
			val = maskKey(val)
		}
		fmt.Fprintf(b, "  %-8s %s\n", inputSteps[i].label+":", val)
	}
}

func maskKey(key string) string {
	if key == "" {
		return "(none)"
	}
	return strings.Repeat("*", len(key))
}

// Result returns the entered values.
func (m SetupModel) Result() (apiURL, model, apiKey string) {
	return m.inputs[0].Value(), m.inputs[1].Value(), m.inputs[2].Value()
}

// ShouldSave returns true if the wizard completed (via validation success or
// "save anyway") and the user did not cancel with Ctrl+C, Escape, or 'q'.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}
