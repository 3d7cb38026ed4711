package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/ryanahq/ryana/internal"
	pkgconfig "github.com/ryanahq/ryana/pkg/config"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var ids []string
	if v := cmd.String("ids"); v != "" {
		ids = strings.Split(v, ",")
	}
	return internal.RunExport(ctx, cmd.String("output"), cmd.String("subject"), ids, internal.WithConfig(cfg))
}

func importSnapshot(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: ryana import <snapshot.json>")
	}
	return internal.RunImport(ctx, cmd.Args().First(), cmd.String("mode"), cmd.Bool("yes"), internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:           "ryana",
		Usage:          "Local-first vault for code snippets and error logs with search, tags, and portable JSON snapshots",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server",
				Action: serve,
				Flags:  []cli.Flag{configFlag()},
			},
			{
				Name:   "mcp",
				Usage:  "Serve vault tools over MCP stdio",
				Action: mcp,
				Flags:  []cli.Flag{configFlag()},
			},
			{
				Name:   "export",
				Usage:  "Write a JSON snapshot of the vault",
				Action: export,
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (defaults to a timestamped name)",
					},
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Export only this subject's snippets",
					},
					&cli.StringFlag{
						Name:  "ids",
						Usage: "Comma-separated snippet ids to export",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Reconcile a JSON snapshot into the vault",
				ArgsUsage: "<snapshot.json>",
				Action:    importSnapshot,
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Reconciliation policy: merge, replace, or add",
						Value: "merge",
					},
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm a destructive replace import",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
