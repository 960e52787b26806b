package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thewisemo/al-eairy-ota/config"
	"github.com/thewisemo/al-eairy-ota/internal/app"
	"github.com/thewisemo/al-eairy-ota/internal/logging"
	"github.com/thewisemo/al-eairy-ota/internal/version"
)

var (
	cfg    *config.Config
	logger zerolog.Logger
	svc    *app.App
)

var rootCmd = &cobra.Command{
	Use:           "otascan",
	Short:         "Al Eairy OTA price scanner",
	Long:          "Collects nightly hotel prices across Booking, Agoda and Expedia, ranks them per city and reports where Al Eairy stands.",
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: console, json")
	rootCmd.PersistentFlags().String("delay-profile", "", "Delay profile: cautious, normal, aggressive, off")
	rootCmd.PersistentFlags().String("proxy-mode", "", "Proxy mode: direct, decodo, custom")
	rootCmd.PersistentFlags().Bool("no-robots", false, "Ignore robots.txt rules")
}

func initConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}

	// Override from flags
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		c.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		c.Logging.Format = v
	}
	if v, _ := cmd.Flags().GetString("delay-profile"); v != "" {
		c.Browser.DelayProfile = v
	}
	if v, _ := cmd.Flags().GetString("proxy-mode"); v != "" {
		c.Browser.Proxy.Mode = v
	}
	if v, _ := cmd.Flags().GetBool("no-robots"); v {
		c.Browser.RespectRobots = false
	}

	cfg = c
	logger = logging.NewLogger(c.Logging).With().Str("app", c.App.Name).Logger()
	svc = app.NewApp(c, logger)
	return nil
}
