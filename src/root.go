package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "vinylshelf",
	Short:   "vinylshelf - browse a vinyl record collection",
	Long:    "vinylshelf serves an infinitely scrolling catalog of vinyl records with search, genre filters, sorting and random picks.",
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newRandomCmd())
	rootCmd.AddCommand(newSeedCmd())
}
