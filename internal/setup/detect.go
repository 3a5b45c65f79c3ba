package setup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yolodolo42/safebot/internal/config"
	"golang.org/x/term"
)

// Status reports which Lark credentials are configured.
type Status struct {
	HasAppID             bool
	HasAppSecret         bool
	HasVerificationToken bool
}

// IsComplete is true when the webhook server can start.
func (s Status) IsComplete() bool {
	return s.HasAppID && s.HasAppSecret && s.HasVerificationToken
}

// DetectStatus inspects cfg.
func DetectStatus(cfg *config.Config) Status {
	if cfg == nil {
		return Status{}
	}
	return Status{
		HasAppID:             cfg.Lark.AppID != "",
		HasAppSecret:         cfg.Lark.AppSecret != "",
		HasVerificationToken: cfg.Lark.VerificationToken != "",
	}
}

// NeedsSetup returns true if interactive setup should run
func NeedsSetup(cfg *config.Config) bool {
	return !DetectStatus(cfg).IsComplete()
}

// GetDataDir returns the safebot data directory path
func GetDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".safebot"), nil
}

// DefaultConfigPath is where the wizard saves settings.
func DefaultConfigPath() (string, error) {
	dir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// PrintEnvInstructions prints setup instructions for non-interactive environments
func PrintEnvInstructions(w io.Writer) {
	fmt.Fprintln(w, "safebot needs Lark app credentials to receive events.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Set these environment variables (or put them in .env):")
	fmt.Fprintln(w, "  SAFEBOT_LARK_APP_ID=cli_...")
	fmt.Fprintln(w, "  SAFEBOT_LARK_APP_SECRET=...")
	fmt.Fprintln(w, "  SAFEBOT_LARK_VERIFICATION_TOKEN=...")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Or run safebot serve interactively to complete guided setup.")
}

// IsInteractive returns true if running in a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
