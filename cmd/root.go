package cmd

import (
	"fmt"
	"log"
	"os"

	"SelahFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "selahfm_server",
	Short: "SelahFM is a devotional content and audio service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting SelahFM server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
