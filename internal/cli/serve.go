package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/yolodolo42/safebot/internal/bot"
	"github.com/yolodolo42/safebot/internal/chain"
	"github.com/yolodolo42/safebot/internal/config"
	"github.com/yolodolo42/safebot/internal/gateway"
	"github.com/yolodolo42/safebot/internal/goplus"
	"github.com/yolodolo42/safebot/internal/lark"
	"github.com/yolodolo42/safebot/internal/observability"
	"github.com/yolodolo42/safebot/internal/security"
	"github.com/yolodolo42/safebot/internal/setup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Lark webhook server",
	Long: `Start the HTTP server that receives Lark/Feishu events.

Endpoints:
  POST <webhook_path>  event callbacks (default /webhook/event)
  GET  /healthz        liveness probe
  GET  /metrics        Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
	}

	if setup.NeedsSetup(cfg) {
		if !setup.IsInteractive() {
			setup.PrintEnvInstructions(cmd.ErrOrStderr())
			return cfg.Validate()
		}
		res, err := setup.RunWizard(cfg)
		if err != nil {
			return fmt.Errorf("setup wizard failed: %w", err)
		}
		if res.Cancelled {
			return nil
		}
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := setup.Save(path, res); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		setup.Apply(cfg, res)
		fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials to %s\n", path)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(cfg.Log, cmd.ErrOrStderr())
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := newServer(ctx, cfg, prometheus.NewRegistry(), log)
	return srv.run(ctx)
}

type server struct {
	http     *http.Server
	chains   *chain.Registry
	interval time.Duration
	log      zerolog.Logger
}

// newServer wires the bot stack. The chain list is loaded once before it
// returns, falling back to the built-in list when the API is unreachable.
func newServer(ctx context.Context, cfg *config.Config, reg *prometheus.Registry, log zerolog.Logger) *server {
	metrics := observability.NewMetrics(reg, observability.DefaultNamespace)

	api := goplus.NewClient(cfg.GoPlus.BaseURL,
		goplus.WithTimeout(cfg.GoPlus.Timeout),
		goplus.WithMetrics(metrics),
		goplus.WithLogger(log.With().Str("component", "goplus").Logger()))

	chains := chain.NewRegistry(api,
		chain.WithLogger(log.With().Str("component", "chains").Logger()),
		chain.WithFallbackHook(func(error) { metrics.ObserveChainFallback() }))
	chains.Refresh(ctx)

	checker := security.NewService(api,
		security.WithTTL(cfg.Cache.TTL),
		security.WithMetrics(metrics),
		security.WithLogger(log.With().Str("component", "security").Logger()))

	messenger := lark.New(cfg.Lark.AppID, cfg.Lark.AppSecret, cfg.Lark.Host,
		lark.WithMetrics(metrics),
		lark.WithLogger(log.With().Str("component", "lark").Logger()))

	b := bot.New(messenger, checker, chains,
		bot.WithQueryTimeout(cfg.GoPlus.Timeout),
		bot.WithMetrics(metrics),
		bot.WithLogger(log.With().Str("component", "bot").Logger()))

	events := gateway.New(cfg.Lark.VerificationToken, b,
		gateway.WithDedupWindow(cfg.Dedup.Window),
		gateway.WithMetrics(metrics),
		gateway.WithLogger(log.With().Str("component", "gateway").Logger()))

	return &server{
		http: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           newMux(cfg.Server.WebhookPath, events, reg),
			ReadHeaderTimeout: 10 * time.Second,
		},
		chains:   chains,
		interval: cfg.Chains.RefreshInterval,
		log:      log,
	}
}

func newMux(webhookPath string, events http.Handler, reg prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(webhookPath, events)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	mux.Handle("GET /metrics", observability.Handler(reg))
	return mux
}

// run serves until ctx is cancelled, then drains in-flight requests.
func (s *server) run(ctx context.Context) error {
	go s.chains.Run(ctx, s.interval)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("webhook server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
