package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/yolodolo42/safebot/internal/chain"
	"github.com/yolodolo42/safebot/internal/security"
	"github.com/yolodolo42/safebot/internal/ui"
)

type checkStep int

const (
	stepChain checkStep = iota
	stepAddress
	stepChecking
	stepDone
)

// checkFunc runs the query for the picked chain and address.
type checkFunc func(chainID, address string) []security.BatchResult

// checkDoneMsg carries the query results back to the model.
type checkDoneMsg struct {
	results []security.BatchResult
}

type checkModel struct {
	step    checkStep
	chains  ui.Selector
	address ui.Prompt
	spinner spinner.Model
	check   checkFunc

	chainID   string
	results   []security.BatchResult
	cancelled bool
}

func validAddress(s string) error {
	if s == "" {
		return errors.New("address is required")
	}
	if !chain.IsValidAddress(s) {
		return chain.ErrInvalidAddress
	}
	return nil
}

func newCheckModel(chains []chain.Chain, check checkFunc) checkModel {
	sel := ui.NewSelector("Which chain is the token on?", ui.ChainItems(chains, "1"))
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ui.ColorPrimary)

	return checkModel{
		step:   stepChain,
		chains: sel,
		address: ui.NewPrompt("Token contract address",
			ui.WithPlaceholder("0x... or base58"),
			ui.WithValidator(validAddress)),
		spinner: sp,
		check:   check,
	}
}

func (m checkModel) Init() tea.Cmd {
	return nil
}

func (m checkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			return m, tea.Quit
		}
		switch m.step {
		case stepChain:
			m.chains.Update(msg)
			if m.chains.Active() {
				return m, nil
			}
			if m.chains.Cancelled() {
				m.cancelled = true
				return m, tea.Quit
			}
			m.chainID = m.chains.Selected()
			m.step = stepAddress
			return m, nil

		case stepAddress:
			switch msg.Type {
			case tea.KeyEsc:
				m.cancelled = true
				return m, tea.Quit
			case tea.KeyEnter:
				if !m.address.Submit() {
					return m, nil
				}
				m.step = stepChecking
				return m, tea.Batch(m.spinner.Tick, m.runCheck())
			}
			var cmd tea.Cmd
			_, cmd = m.address.Update(msg)
			return m, cmd
		}

	case checkDoneMsg:
		m.results = msg.results
		m.step = stepDone
		return m, tea.Quit

	case spinner.TickMsg:
		if m.step != stepChecking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.chains.SetWidth(msg.Width)
		m.chains.SetHeight(msg.Height - 6)
		m.address.SetWidth(msg.Width)
	}
	return m, nil
}

func (m checkModel) runCheck() tea.Cmd {
	chainID, addr, check := m.chainID, m.address.Value(), m.check
	return func() tea.Msg {
		return checkDoneMsg{results: check(chainID, addr)}
	}
}

func (m checkModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	switch m.step {
	case stepChain:
		b.WriteString(m.chains.View())
	case stepAddress:
		b.WriteString(m.address.View())
		b.WriteString("\n\n")
		b.WriteString(ui.HelpStyle.Render("Enter to check • Esc to quit"))
	case stepChecking:
		b.WriteString(m.spinner.View() + " Analyzing token security...")
	case stepDone:
		return ""
	}
	b.WriteString("\n")
	return b.String()
}

// interactive picks a chain and address in the terminal, then prints the report.
func (c *checker) interactive(ctx context.Context, w io.Writer) error {
	chains := c.registry(ctx).Snapshot()
	svc := security.NewService(c.api, security.WithLogger(c.log))
	check := func(chainID, addr string) []security.BatchResult {
		return svc.CheckBatch(ctx, chainID, []string{addr}, c.timeout)
	}

	final, err := tea.NewProgram(newCheckModel(chains, check)).Run()
	if err != nil {
		return err
	}
	m, ok := final.(checkModel)
	if !ok || m.cancelled || m.step != stepDone {
		return nil
	}
	return writeResults(w, m.results, outputPretty, terminalWidth())
}
