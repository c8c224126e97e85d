package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/dialogbot/core/cmd"
)

const defaultConfigPath = "config.yaml"

var rootCmd = &cobra.Command{
	Use:           "dialogbot",
	Short:         "Telegram bot that runs guided dialogues",
	Long:          `dialogbot collects registrations, expense reports and client assessments through step-by-step Telegram dialogues.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command until SIGINT or SIGTERM and exits non-zero on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config (defaults to $CONFIG_PATH or ./config.yaml)")
}

func configPath(cmd *cobra.Command) string {
	explicit, _ := cmd.Flags().GetString("config")
	return corecmd.ResolveConfigPath(explicit, "CONFIG_PATH", defaultConfigPath)
}
