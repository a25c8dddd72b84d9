package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/JoneySinx/V2/pkg/config"
	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/storage"
	"github.com/urfave/cli/v3"
)

// OptimizeCommand creates the optimize command
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Merge full-text index segments and refresh planner statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "partition",
				Usage: "Target a single partition (default: all)",
				Value: core.ScopeAll,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return optimizeStorage(ctx, c.String("config"), c.String("partition"), os.Stdout)
		},
	}
}

// optimizeStorage opens every selected partition and optimizes it
func optimizeStorage(ctx context.Context, configPath, partition string, out io.Writer) error {
	scope, err := strictScope(partition)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	storageManager, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer closeManager(storageManager)

	return optimizePartitions(ctx, storageManager, scope, out)
}

func optimizePartitions(ctx context.Context, storageManager *storage.Manager, scope core.Scope, out io.Writer) error {
	for _, p := range scope.Partitions() {
		if _, err := storageManager.Store(p); err != nil {
			renderFailed(out, fmt.Sprintf("%s: %v", p, err))
			return err
		}
	}

	if err := storageManager.Optimize(ctx); err != nil {
		renderFailed(out, err.Error())
		return err
	}

	renderOK(out, fmt.Sprintf("optimized %s", scope))
	return nil
}
