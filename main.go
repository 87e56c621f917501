package main

import (
	"os"

	"github.com/cottand/ivars/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ivars [subcommand]",
	Short: "ivars records and traces the bounds of generic type inference variables",
	Args:  cobra.MinimumNArgs(1),
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		return cmd.LoadConfig(c, configPath)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "error", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("color", "auto", "color output: auto, always or never")

	rootCmd.AddCommand(cmd.TraceCmd)
	rootCmd.AddCommand(cmd.NameCmd)
}
