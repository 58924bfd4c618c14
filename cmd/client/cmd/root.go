// Package cmd provides the irondomoctl command-line interface.
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	endpoint string
	timeout  string

	rootCmd = &cobra.Command{
		Use:   "irondomoctl",
		Short: "Issue IronDomo broker requests from the command line",
		Long:  "A control utility for sending requests to an IronDomo broker and querying its mmi.* management service.",
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(mmiCmd)

	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "tcp://localhost:9797", "broker endpoint")
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "2500ms", "reply timeout")

	if err := viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint")); err != nil {
		log.Fatal(err)
	}
}
