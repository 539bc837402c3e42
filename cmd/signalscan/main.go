package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"SignalScan/internal/di"
	"SignalScan/internal/domain/models"
	"SignalScan/pkg/config"
	"SignalScan/pkg/util"

	"github.com/urfave/cli/v3"

	_ "time/tzdata"
)

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if symbols := util.NormalizeSymbols(cmd.StringSlice("symbols")); len(symbols) > 0 {
		cfg.Scan.Symbols = symbols
	}
	return cfg, nil
}

// serveAction runs the scheduler and HTTP API until interrupted.
func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := di.InitializeApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	return app.Run(ctx)
}

// scanAction performs a single pass and prints the report as JSON.
func scanAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	app, err := di.InitializeApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}

	report := app.RunOnce(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if cmd.Bool("fail-on-error") && report.Counts[models.OutcomeFailed] > 0 {
		return cli.Exit(fmt.Sprintf("%d symbols failed", report.Counts[models.OutcomeFailed]), 2)
	}
	return nil
}

func symbolsFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "symbols",
		Aliases: []string{"s"},
		Usage:   "Override the configured ticker universe",
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "signalscan",
		Usage: "Scan tickers for DI/Ichimoku signals and publish them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("SIGNALSCAN_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run scheduled scans and serve the HTTP API",
				Flags:  []cli.Flag{symbolsFlag()},
				Action: serveAction,
			},
			{
				Name:  "scan",
				Usage: "Run one scan and print the report",
				Flags: []cli.Flag{
					symbolsFlag(),
					&cli.BoolFlag{
						Name:  "fail-on-error",
						Usage: "Exit with status 2 when any symbol failed",
					},
				},
				Action: scanAction,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
