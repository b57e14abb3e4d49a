// Command coursegraph builds the course graph from local files and answers
// questions against it without the server and worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/coursegraph/internal/app"
	"github.com/OFFIS-RIT/coursegraph/internal/util"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger/console"

	"github.com/spf13/cobra"
)

var cfg app.Config

var rootCmd = &cobra.Command{
	Use:   "coursegraph",
	Short: "Build and query the course knowledge graph",
	Long: `Build and query the course knowledge graph.

Backends and extraction settings come from the environment (or a .env
file), the same variables the server and worker read.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		util.LoadEnv()
		cfg = app.LoadConfig()
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			cfg.Debug = true
		}
		if backend, _ := cmd.Flags().GetString("graph-backend"); backend != "" {
			cfg.GraphBackend = backend
		}
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug: cfg.Debug,
			JSON:  cfg.LogJSON,
		}))
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("graph-backend", "", "Override GRAPH_BACKEND (postgres, neo4j, memory)")

	rootCmd.AddCommand(buildCmd, importJSONCmd, importCSVCmd, askCmd, statsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
