package main

import (
	"github.com/spf13/cobra"

	"github.com/m3rciful/dialogbot/app"
	"github.com/m3rciful/dialogbot/app/config"
	corecmd "github.com/m3rciful/dialogbot/core/cmd"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return corecmd.Run(corecmd.Options{
			ConfigPath: configPath(cmd),
			LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
				return config.Load(path)
			},
			Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
				return app.New(cfg.(*config.AppConfig))
			},
			Context: cmd.Context(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
