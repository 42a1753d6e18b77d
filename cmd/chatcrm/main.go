package main

import (
	"fmt"
	"os"

	"chatcrm/internal/pkg/config"
	"chatcrm/internal/pkg/log"
	"chatcrm/internal/pkg/metrics"

	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chatcrm",
	Short: "ChatCRM sign-in services",
	Long: `ChatCRM sign-in tooling.

Available subcommands:
  proxy  - Serve the /api/auth/* forwarding proxy
  signin - Sign in from the terminal with a password or a one-time code`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded

		log.Init(log.ParseLevel(cfg.LogLevel), cfg.Environment)
		metrics.SetServiceName("chatcrm-" + cmd.Name())
		log.Debug("配置已加载", log.Any("config", config.SanitizeConfigForLog(cfg.ToLogMap())))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(proxyCmd)
	rootCmd.AddCommand(signinCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
