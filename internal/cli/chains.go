package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/yolodolo42/safebot/internal/chain"
	"github.com/yolodolo42/safebot/internal/goplus"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List chains supported by the security API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fallback, _ := cmd.Flags().GetBool("fallback")
		asJSON, _ := cmd.Flags().GetBool("json")
		log := newLogger(cfg.Log, cmd.ErrOrStderr())

		var src chain.Source
		if !fallback {
			src = goplus.NewClient(cfg.GoPlus.BaseURL,
				goplus.WithTimeout(cfg.GoPlus.Timeout),
				goplus.WithLogger(log))
		}
		return listChains(cmd.Context(), cmd.OutOrStdout(), src, asJSON, terminalWidth())
	},
}

func init() {
	chainsCmd.Flags().Bool("fallback", false, "show the built-in list without calling the API")
	chainsCmd.Flags().Bool("json", false, "print as JSON")
	rootCmd.AddCommand(chainsCmd)
}

// listChains prints the live chain list, or the built-in one when src is nil
// or unreachable.
func listChains(ctx context.Context, w io.Writer, src chain.Source, asJSON bool, width int) error {
	chains := chain.FallbackChains()
	if src != nil {
		r := chain.NewRegistry(src)
		r.Refresh(ctx)
		chains = r.Snapshot()
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(chains); err != nil {
			return fmt.Errorf("encode chains: %w", err)
		}
		return nil
	}
	_, err := io.WriteString(w, renderChains(width, chains))
	return err
}
