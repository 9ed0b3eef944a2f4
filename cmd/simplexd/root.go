package main

import (
	"github.com/spf13/cobra"

	"github.com/optkit/simplexd/internal/logging"
)

var (
	logLevel string
	logger   *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "simplexd",
	Short: "Derivative-free optimization with the Nelder-Mead simplex method",
	Long: `simplexd minimizes or maximizes real-valued functions without
derivatives, either one-shot from the command line or as an HTTP service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.NewLogger(&logging.Config{
			Level:  logLevel,
			Format: "json",
			Output: "stderr",
		})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}
