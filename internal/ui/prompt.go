package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Prompt is a single-line input with a styled prefix and optional validation
// run on submit.
type Prompt struct {
	input    textinput.Model
	label    string
	validate func(string) error
	err      error
}

// PromptOption configures a Prompt.
type PromptOption func(*Prompt)

// WithPlaceholder sets the placeholder text.
func WithPlaceholder(s string) PromptOption {
	return func(p *Prompt) { p.input.Placeholder = s }
}

// WithValidator checks the trimmed value on Submit.
func WithValidator(fn func(string) error) PromptOption {
	return func(p *Prompt) { p.validate = fn }
}

// WithSecret masks the typed value.
func WithSecret() PromptOption {
	return func(p *Prompt) {
		p.input.EchoMode = textinput.EchoPassword
		p.input.EchoCharacter = '•'
	}
}

// NewPrompt creates a focused prompt.
func NewPrompt(label string, opts ...PromptOption) Prompt {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 2000
	ti.Width = 76
	ti.Focus()

	p := Prompt{input: ti, label: label}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// SetWidth sets the width of the input
func (p *Prompt) SetWidth(w int) {
	p.input.Width = w - 4 // Account for prompt symbol and spacing
}

// Value returns the trimmed input value.
func (p *Prompt) Value() string {
	return strings.TrimSpace(p.input.Value())
}

// SetValue sets the input value
func (p *Prompt) SetValue(s string) {
	p.input.SetValue(s)
}

// Err is the last validation error.
func (p *Prompt) Err() error {
	return p.err
}

// Submit validates the current value. It reports whether the value was accepted.
func (p *Prompt) Submit() bool {
	p.err = nil
	if p.validate != nil {
		p.err = p.validate(p.Value())
	}
	return p.err == nil
}

// Update handles input events
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View renders the prompt
func (p *Prompt) View() string {
	var b strings.Builder
	if p.label != "" {
		b.WriteString(TitleStyle.Render(p.label))
		b.WriteString("\n")
	}
	b.WriteString(PromptStyle.Render(SymbolPrompt) + " " + p.input.View())
	if p.err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(SymbolCross + " " + p.err.Error()))
	}
	return b.String()
}
