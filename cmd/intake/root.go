package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/claimdesk/intake/internal/cli"
	"github.com/claimdesk/intake/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	v       = config.New()
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Intake is a multi-step wizard engine for insurance claims",
	Long: `Intake guides adjusters through claim intake one step at a time,
validates every step and checkpoints progress so a claim can be resumed later.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		c, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		logger = cli.NewLogger(cfg.Log, os.Stderr)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./intake.yaml, then "+config.ConfigDir()+"/intake.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("store", "", "checkpoint store backend: memory, file, redis, sqlite")
	flags.String("variants", "", "YAML file with custom wizard variants")

	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("store.backend", flags.Lookup("store"))
	_ = v.BindPFlag("variants.file", flags.Lookup("variants"))
}
