package main

import (
	"fmt"
	"os"

	"github.com/AthlureSolutions/sitelure/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort int
	serveMode string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sitelure API and/or worker",
	Long: `Start sitelure with API and/or worker components.

Examples:
  sitelure serve                    # Run both API server and worker
  sitelure serve --mode server      # Run API server only
  sitelure serve --mode worker      # Run worker only
  sitelure serve --port 8080        # Override port

Environment variables:
  SITELURE_SERVER_PORT          Server port (default: 8460)
  SITELURE_DATABASE_DRIVER      Database driver: sqlite, postgres
  SITELURE_DATABASE_DSN         Database connection string
  SITELURE_QUEUE_TYPE           Queue type: memory, valkey
  SITELURE_AUTH_JWT_SECRET      JWT signing secret
  OPENAI_API_KEY                Generation service key
  NETLIFY_API_TOKEN             Hosting provider token`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
	serveCmd.Flags().StringVarP(&serveMode, "mode", "m", server.ModeBoth, "Run mode: server, worker, or both")
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := server.Config{
		Port:    servePort,
		Mode:    serveMode,
		Version: Version,
	}

	if err := server.RunWithSignalHandling(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
