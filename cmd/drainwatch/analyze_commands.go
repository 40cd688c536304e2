package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/drainwatch/drainwatch/client"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a wallet's recent transactions for drain activity",
		ArgsUsage: "WALLET_ADDRESS",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "How many recent transactions to analyze (server default if 0)",
			},
			&cli.BoolFlag{
				Name:  "experimental",
				Usage: "Include token and NFT loss extraction",
			},
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "jq filter applied to the report JSON (e.g. '.detections[].type')",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output the full report as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("wallet address is required")
			}

			address := c.Args().Get(0)
			cl := client.NewClient(c.String("server-url"), nil, quietLogger())

			report, err := cl.Analyze(context.Background(), address, client.AnalyzeOptions{
				Limit:        c.Int("limit"),
				Experimental: c.Bool("experimental"),
			})
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			if filter := c.String("filter"); filter != "" {
				return printFiltered(report, filter)
			}

			if c.Bool("json") {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal report: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Wallet:       %s\n", report.WalletAddress)
			fmt.Printf("Risk:         %d (%s)\n", report.OverallRisk, report.Severity)
			fmt.Printf("Transactions: %d\n", report.TransactionCount)
			fmt.Printf("Detections:   %d\n", len(report.Detections))
			for _, d := range report.Detections {
				fmt.Printf("  - %s [%s, confidence %d] tx %s\n", d.Type, d.Severity, d.Confidence, d.Signature)
			}
			if report.AffectedAssets.SolLostLamports > 0 {
				fmt.Printf("SOL lost:     %.9f\n", report.AffectedAssets.SolLost())
			}
			for _, rec := range report.Recommendations {
				fmt.Printf("  ! %s\n", rec)
			}
			return nil
		},
	}
}

// printFiltered runs a jq filter over the JSON form of v and prints each
// result on its own line.
func printFiltered(v interface{}, filter string) error {
	query, err := gojq.Parse(filter)
	if err != nil {
		return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}

	// Round-trip through JSON so gojq sees plain maps and slices.
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	iter := code.Run(doc)
	for {
		result, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := result.(error); isErr {
			return fmt.Errorf("jq filter error: %w", err)
		}
		out, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal filter result: %w", err)
		}
		fmt.Println(string(out))
	}
	return nil
}

// quietLogger returns a logger that only surfaces errors, keeping CLI output clean.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}
