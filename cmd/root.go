package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zapista-bot/zapista-core/internal/app"
	"github.com/zapista-bot/zapista-core/internal/config"
)

// rootCmd is the single entry point: load config, build the application
// graph, run it until an interrupt, shut down cleanly.
var rootCmd = &cobra.Command{
	Use:   "zapista",
	Short: "Agent orchestration core for a chat-based personal organizer",
	Long: `zapista-core runs the agent orchestration loop for a chat-based
reminders/lists/events assistant: inbound dedup and rate limiting, the
handler chain and LLM fallback, the durable cron scheduler, and the
channel bridge adapter.`,
	RunE: runServe,
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initLogging() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log := logrus.NewEntry(logrus.StandardLogger())
	application, err := app.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithField("data_dir", cfg.DataDir).Info("starting zapista-core")
	application.Run(ctx)
	return nil
}

// Execute runs the root command; exits the process with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("fatal error")
		os.Exit(1)
	}
}
