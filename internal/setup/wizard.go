// Package setup runs the first-start wizard that collects Lark app
// credentials and saves them to the config file.
package setup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"github.com/yolodolo42/safebot/internal/config"
	"github.com/yolodolo42/safebot/internal/lark"
	"github.com/yolodolo42/safebot/internal/ui"
)

// FeishuHost is the open platform host for Feishu (mainland China) tenants.
const FeishuHost = lark.FeishuHost

// WizardStep represents the current step in the wizard
type WizardStep int

const (
	StepWelcome WizardStep = iota
	StepRegion
	StepAppID
	StepAppSecret
	StepToken
	StepComplete
)

const totalSteps = 4 // Region, App ID, Secret, Token

// Result contains the collected settings.
type Result struct {
	Host              string
	AppID             string
	AppSecret         string
	VerificationToken string
	Cancelled         bool
}

// WizardModel is the main wizard Bubbletea model
type WizardModel struct {
	step     WizardStep
	quitting bool

	region    ui.Selector
	appID     ui.Prompt
	appSecret ui.Prompt
	token     ui.Prompt

	host     string
	progress progress.Model
	result   *Result
}

func regionItems(currentHost string) []ui.SelectorItem {
	return []ui.SelectorItem{
		{ID: lark.DefaultHost, Label: "Lark", Description: "open.larksuite.com", Current: currentHost == lark.DefaultHost},
		{ID: FeishuHost, Label: "Feishu", Description: "open.feishu.cn", Current: currentHost == FeishuHost},
	}
}

func required(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", name)
		}
		if strings.ContainsAny(s, " \t") {
			return fmt.Errorf("%s must not contain spaces", name)
		}
		return nil
	}
}

// NewWizard creates a wizard prefilled from cfg.
func NewWizard(cfg *config.Config) *WizardModel {
	if cfg == nil {
		cfg = &config.Config{}
	}

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	appID := ui.NewPrompt("  Lark App ID",
		ui.WithPlaceholder("cli_..."),
		ui.WithValidator(required("App ID")))
	appID.SetValue(cfg.Lark.AppID)

	return &WizardModel{
		step:   StepWelcome,
		region: ui.NewSelector("Where is your app registered?", regionItems(cfg.Lark.Host)),
		appID:  appID,
		appSecret: ui.NewPrompt("  App Secret",
			ui.WithSecret(),
			ui.WithValidator(required("App Secret"))),
		token: ui.NewPrompt("  Verification Token",
			ui.WithSecret(),
			ui.WithValidator(required("Verification Token"))),
		host:     cfg.Lark.Host,
		progress: prog,
	}
}

// Init initializes the wizard
func (m WizardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.result = &Result{Cancelled: true}
			m.quitting = true
			return m, tea.Quit
		}

		switch m.step {
		case StepWelcome:
			if msg.Type == tea.KeyEnter {
				m.step = StepRegion
			}
			return m, nil

		case StepRegion:
			m.region.Update(msg)
			if m.region.Active() {
				return m, nil
			}
			if m.region.Cancelled() {
				m.step = StepWelcome
				m.region = ui.NewSelector("Where is your app registered?", regionItems(m.host))
				return m, nil
			}
			m.host = m.region.Selected()
			m.step = StepAppID
			return m, nil

		case StepAppID, StepAppSecret, StepToken:
			return m.updatePrompt(msg)

		case StepComplete:
			if msg.Type == tea.KeyEnter {
				m.result = &Result{
					Host:              m.host,
					AppID:             m.appID.Value(),
					AppSecret:         m.appSecret.Value(),
					VerificationToken: m.token.Value(),
				}
				m.quitting = true
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.progress.Width = min(40, msg.Width-20)
		m.region.SetWidth(msg.Width)
		m.appID.SetWidth(msg.Width)
		m.appSecret.SetWidth(msg.Width)
		m.token.SetWidth(msg.Width)
	}

	return m, nil
}

func (m *WizardModel) current() *ui.Prompt {
	switch m.step {
	case StepAppSecret:
		return &m.appSecret
	case StepToken:
		return &m.token
	default:
		return &m.appID
	}
}

func (m WizardModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.step--
		if m.step == StepRegion {
			m.region = ui.NewSelector("Where is your app registered?", regionItems(m.host))
		}
		return m, nil
	case tea.KeyEnter:
		p := m.current()
		if !p.Submit() {
			return m, nil
		}
		m.step++
		return m, nil
	}

	var cmd tea.Cmd
	switch m.step {
	case StepAppID:
		_, cmd = m.appID.Update(msg)
	case StepAppSecret:
		_, cmd = m.appSecret.Update(msg)
	case StepToken:
		_, cmd = m.token.Update(msg)
	}
	return m, cmd
}

// View renders the wizard
func (m WizardModel) View() string {
	if m.quitting {
		if m.result != nil && m.result.Cancelled {
			return ui.DimStyle.Render("\n  Setup cancelled.\n\n")
		}
		return ""
	}

	var b strings.Builder

	if m.step > StepWelcome && m.step < StepComplete {
		b.WriteString("\n")
		b.WriteString(m.renderProgress())
		b.WriteString("\n")
	}

	switch m.step {
	case StepWelcome:
		b.WriteString(m.viewWelcome())
	case StepRegion:
		b.WriteString("\n" + m.region.View())
	case StepAppID, StepAppSecret, StepToken:
		b.WriteString("\n")
		b.WriteString(m.current().View())
		b.WriteString("\n\n")
		b.WriteString(ui.HelpStyle.Render("  Enter to continue • Esc back"))
	case StepComplete:
		b.WriteString(m.viewComplete())
	}

	return b.String()
}

func (m WizardModel) renderProgress() string {
	current := int(m.step - StepWelcome)
	percent := float64(current) / float64(totalSteps)
	return fmt.Sprintf("  %s  %s", m.progress.ViewAs(percent),
		ui.StepStyle.Render(fmt.Sprintf("Step %d of %d", current, totalSteps)))
}

func (m WizardModel) viewWelcome() string {
	var b strings.Builder
	b.WriteString("\n\n")
	box := ui.BoxStyle.Render(
		ui.TitleStyle.Render("Welcome to safebot") + "\n" +
			ui.DimStyle.Render("Token security checks for your Lark chats") + "\n\n" +
			"You will need the App ID, App Secret and Verification Token\n" +
			"from your app's Credentials and Event Subscriptions pages.",
	)
	b.WriteString(box)
	b.WriteString("\n\n")
	b.WriteString(ui.HelpStyle.Render("  Press Enter to continue..."))
	return b.String()
}

func (m WizardModel) viewComplete() string {
	region := "Lark"
	if m.host == FeishuHost {
		region = "Feishu"
	}
	content := fmt.Sprintf(
		"%s\n\n"+
			"Region: %s\n"+
			"App ID: %s\n\n"+
			"%s",
		ui.TitleStyle.Render("✨ You're all set!"),
		region,
		m.appID.Value(),
		ui.DimStyle.Render("Point your event subscription at /webhook/event."),
	)

	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(ui.BoxStyle.Render(content))
	b.WriteString("\n\n")
	b.WriteString(ui.HelpStyle.Render("  Press Enter to save and start the server..."))
	return b.String()
}

// RunWizard runs the setup wizard and returns the result
func RunWizard(cfg *config.Config) (*Result, error) {
	p := tea.NewProgram(NewWizard(cfg), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(WizardModel)
	if !ok || m.result == nil {
		return &Result{Cancelled: true}, nil
	}
	return m.result, nil
}

// Save writes r into the config file at path, keeping any other settings
// already stored there.
func Save(path string, r *Result) error {
	if r == nil || r.Cancelled {
		return errors.New("nothing to save")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read existing config: %w", err)
		}
	}
	if r.Host != "" {
		v.Set("lark.host", r.Host)
	}
	v.Set("lark.app_id", r.AppID)
	v.Set("lark.app_secret", r.AppSecret)
	v.Set("lark.verification_token", r.VerificationToken)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Chmod(path, 0600)
}

// Apply copies r into cfg.
func Apply(cfg *config.Config, r *Result) {
	if cfg == nil || r == nil || r.Cancelled {
		return
	}
	if r.Host != "" {
		cfg.Lark.Host = r.Host
	}
	cfg.Lark.AppID = r.AppID
	cfg.Lark.AppSecret = r.AppSecret
	cfg.Lark.VerificationToken = r.VerificationToken
}
