package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"idvmgt/internal/platform/config"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "idvmgt",
		Short:         "Identity verification provider and claim management service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("IDVMGT_CONFIG"), "path to a YAML config file")
	root.AddCommand(serveCmd(), migrateCmd(), tokenCmd())
	return root
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}
