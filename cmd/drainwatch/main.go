package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "drainwatch",
		Usage: "Solana wallet drain analysis service CLI",
		Description: `A command-line tool for analyzing wallets and managing the on-chain drainer registry.

Use this CLI to run drain analyses against the service, look up drainer reports,
and submit new reports either through the service or directly on-chain.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			analyzeCommand(),
			// On-chain drainer registry commands
			{
				Name:  "report",
				Usage: "Drainer registry commands",
				Subcommands: []*cli.Command{
					reportGetCommand(),
					reportSubmitCommand(),
					reportSubmitOnchainCommand(),
				},
			},
			// Server utility commands
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					versionCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "Server URL for API and health checks",
				EnvVars: []string{"DRAINWATCH_SERVER_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana RPC endpoint for direct on-chain commands",
				EnvVars: []string{"SOLANA_RPC_URL"},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
