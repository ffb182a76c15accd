package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "sitelure",
	Short: "sitelure - brand inputs in, deployed marketing site out",
	Long: `sitelure generates marketing-site content from a few brand inputs,
builds it with a static site template and publishes it to a hosting provider.`,
	Example: `  # Run the API and the worker in one process
  sitelure serve

  # Check a content document against the site schema
  sitelure validate websiteData.json

  # Print a complete, valid content document
  sitelure example`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
