package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "library",
		Short:         "Library borrowing backend: catalog, borrowings, payments and chat notifications",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "Path to the YAML config")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(checkOverdueCmd(&configPath))
	rootCmd.AddCommand(importBooksCmd(&configPath))
	rootCmd.AddCommand(backupCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
