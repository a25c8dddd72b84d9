package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/JoneySinx/V2/pkg/config"
	"github.com/urfave/cli/v3"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show per-partition file counts",
		Action: func(ctx context.Context, c *cli.Command) error {
			return showStats(ctx, c.String("config"), os.Stdout)
		},
	}
}

// showStats displays storage statistics
func showStats(ctx context.Context, configPath string, out io.Writer) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	engine, storageManager, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeManager(storageManager)

	stats, err := engine.Stats(ctx)
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	renderStats(out, stats)
	return nil
}
