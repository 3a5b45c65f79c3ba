package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/safebot/internal/chain"
	"github.com/yolodolo42/safebot/internal/goplus"
	"github.com/yolodolo42/safebot/internal/report"
	"github.com/yolodolo42/safebot/internal/security"
	"github.com/yolodolo42/safebot/internal/setup"
	"github.com/yolodolo42/safebot/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [chain] [address...]",
	Short: "Check token security from the terminal",
	Long: `Query the GoPlus token security API and print the report.

The chain may be a chain id (1, 56, solana) or a name (Ethereum, BSC).
Several addresses can be given, separated by spaces or commas; they are
sent in one request. Without arguments an interactive picker starts.`,
	Example: `  safebot check 1 0xdAC17F958D2ee523a2206206994597C13D831ec7
  safebot check solana EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v --json`,
	RunE: runCheckCmd,
}

func init() {
	checkCmd.Flags().Bool("json", false, "print the normalized report as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	log := newLogger(cfg.Log, cmd.ErrOrStderr())

	c := &checker{
		api: goplus.NewClient(cfg.GoPlus.BaseURL,
			goplus.WithTimeout(cfg.GoPlus.Timeout),
			goplus.WithLogger(log)),
		timeout: cfg.GoPlus.Timeout,
		log:     log,
	}
	ctx := cmd.Context()

	if len(args) < 2 {
		if len(args) == 0 && !asJSON && setup.IsInteractive() {
			return c.interactive(ctx, cmd.OutOrStdout())
		}
		return errors.New("usage: safebot check <chain> <address> [address...]")
	}
	mode := outputText
	switch {
	case asJSON:
		mode = outputJSON
	case stdoutIsTerminal():
		mode = outputPretty
	}
	return c.run(ctx, cmd.OutOrStdout(), args[0], splitAddresses(args[1:]), mode)
}

type outputMode int

const (
	outputText outputMode = iota
	outputPretty
	outputJSON
)

type checker struct {
	api     *goplus.Client
	timeout time.Duration
	log     zerolog.Logger
}

func (c *checker) registry(ctx context.Context) *chain.Registry {
	r := chain.NewRegistry(c.api, chain.WithLogger(c.log))
	r.Refresh(ctx)
	return r
}

func (c *checker) run(ctx context.Context, w io.Writer, chainToken string, addrs []string, mode outputMode) error {
	ch, ok := c.registry(ctx).Resolve(chainToken)
	if !ok {
		return fmt.Errorf("%w: %q (run \"safebot chains\" to list supported chains)", chain.ErrChainNotFound, chainToken)
	}
	if len(addrs) == 0 {
		return errors.New("no token address given")
	}

	results := security.NewService(c.api, security.WithLogger(c.log)).
		CheckBatch(ctx, ch.ID, addrs, c.timeout)
	return writeResults(w, results, mode, terminalWidth())
}

type jsonResult struct {
	Address string           `json:"address"`
	Report  *security.Report `json:"report,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func writeResults(w io.Writer, results []security.BatchResult, mode outputMode, width int) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if mode == outputJSON {
		out := make([]jsonResult, 0, len(results))
		for _, r := range results {
			jr := jsonResult{Address: r.Address, Report: r.Report}
			if r.Err != nil {
				jr.Error = r.Err.Error()
			}
			out = append(out, jr)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintln(w, ui.ErrorStyle.Render(fmt.Sprintf("%s %s: %v", ui.SymbolCross, chain.DisplayAddress(r.Address), r.Err)))
				continue
			}
			doc := report.Format(r.Report)
			if mode == outputPretty {
				fmt.Fprint(w, renderDocument(width, doc))
			} else {
				fmt.Fprintln(w, doc.Text())
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}

// splitAddresses accepts addresses as separate args or comma-separated.
func splitAddresses(args []string) []string {
	var out []string
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
