package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/drainwatch/drainwatch/client"
	"github.com/drainwatch/drainwatch/service/registry"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/urfave/cli/v2"
)

func reportGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Look up the on-chain drainer report for an address",
		ArgsUsage: "DRAINER_ADDRESS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "jq filter applied to the report JSON",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("drainer address is required")
			}

			address := c.Args().Get(0)
			cl := client.NewClient(c.String("server-url"), nil, quietLogger())

			report, err := cl.GetReport(context.Background(), address)
			if err != nil {
				return fmt.Errorf("lookup failed: %w", err)
			}
			if report == nil {
				fmt.Println("null")
				return nil
			}

			if filter := c.String("filter"); filter != "" {
				return printFiltered(report, filter)
			}

			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal report: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func reportSubmitCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "Submit a drainer report through the service",
		ArgsUsage: "DRAINER_ADDRESS",
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "amount",
				Usage: "Amount stolen in lamports (omit if unknown)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("drainer address is required")
			}

			address := c.Args().Get(0)
			cl := client.NewClient(c.String("server-url"), nil, quietLogger())

			var amount *uint64
			if c.IsSet("amount") {
				v := c.Uint64("amount")
				amount = &v
			}

			sig, err := cl.SubmitReport(context.Background(), address, amount)
			if err != nil {
				return fmt.Errorf("report submission failed: %w", err)
			}

			fmt.Printf("✓ Report submitted\n")
			fmt.Printf("  Address:   %s\n", address)
			fmt.Printf("  Signature: %s\n", sig)
			return nil
		},
	}
}

func reportSubmitOnchainCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit-onchain",
		Usage:     "Submit a drainer report directly on-chain with a local keypair",
		ArgsUsage: "DRAINER_ADDRESS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "keypair",
				Aliases:  []string{"k"},
				Usage:    "Path to the reporter's Solana keygen file",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "program-id",
				Usage:   "Drainer registry program ID",
				EnvVars: []string{"REGISTRY_PROGRAM_ID"},
				Value:   "BYbF6QC9PoeHGH4y1pLNC2YHBChpnFBq46vBydyBFxq2",
			},
			&cli.StringFlag{
				Name:     "fee-authority",
				Usage:    "Account that collects the anti-spam fee",
				EnvVars:  []string{"FEE_AUTHORITY_ADDRESS"},
				Required: true,
			},
			&cli.Uint64Flag{
				Name:  "amount",
				Usage: "Amount stolen in lamports (omit if unknown)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("drainer address is required")
			}
			rpcURL := c.String("rpc-url")
			if rpcURL == "" {
				return fmt.Errorf("rpc-url is required (set SOLANA_RPC_URL env var or use --rpc-url)")
			}

			address := c.Args().Get(0)

			programID, err := solanago.PublicKeyFromBase58(c.String("program-id"))
			if err != nil {
				return fmt.Errorf("invalid program ID: %w", err)
			}
			feeAuthority, err := solanago.PublicKeyFromBase58(c.String("fee-authority"))
			if err != nil {
				return fmt.Errorf("invalid fee authority: %w", err)
			}
			key, err := solanago.PrivateKeyFromSolanaKeygenFile(c.String("keypair"))
			if err != nil {
				return fmt.Errorf("failed to load keypair: %w", err)
			}

			var amount *uint64
			if c.IsSet("amount") {
				v := c.Uint64("amount")
				amount = &v
			}

			reg := registry.NewClient(rpc.New(rpcURL), programID, feeAuthority, &key, nil, quietLogger())
			sig, err := reg.Report(context.Background(), address, amount)
			if err != nil {
				return fmt.Errorf("report submission failed: %w", err)
			}

			fmt.Printf("✓ Report submitted on-chain\n")
			fmt.Printf("  Address:   %s\n", address)
			fmt.Printf("  Reporter:  %s\n", key.PublicKey().String())
			fmt.Printf("  Signature: %s\n", sig.String())
			return nil
		},
	}
}
