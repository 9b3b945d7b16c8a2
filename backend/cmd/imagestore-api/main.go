package main

import (
	"os"

	"github.com/itchan-dev/imagestore/shared/logger"
	"github.com/spf13/cobra"
)

var configFolder string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "imagestore-api",
	Short:         "Stores uploaded images on disk and serves them back by id",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Log.Error("failed to execute command", "error", err)
		os.Exit(1)
	}
}
