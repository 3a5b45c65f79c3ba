package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yolodolo42/safebot/internal/config"
	"github.com/yolodolo42/safebot/internal/setup"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "safebot",
		Short: "Token security bot for Lark",
		Long: `safebot checks token contracts against the GoPlus security API.

Run it as a Lark/Feishu bot with "safebot serve", or query tokens from the
terminal with "safebot check <chain> <address>".`,
		SilenceUsage: true,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.safebot/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("goplus-url", "", "GoPlus API base URL")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("goplus.base_url", rootCmd.PersistentFlags().Lookup("goplus-url"))
}

func initConfig() {
	// A .env in the working directory is optional.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dataDir, err := setup.GetDataDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(dataDir)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	config.BindEnv(viper.GetViper())

	// Silently ignore missing config file - it's optional
	_ = viper.ReadInConfig()
}

// loadConfig reads the typed config. Unchanged flags fall back to the
// config defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// configPath is the file the setup wizard writes to.
func configPath() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			return used, nil
		}
	}
	if cfgFile != "" {
		return filepath.Clean(cfgFile), nil
	}
	return setup.DefaultConfigPath()
}

// newLogger builds the process logger. Console format is meant for terminals,
// json for log collectors.
func newLogger(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
