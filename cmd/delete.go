package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JoneySinx/V2/pkg/config"
	"github.com/JoneySinx/V2/pkg/storage"
	"github.com/urfave/cli/v3"
)

// DeleteCommand creates the delete command
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete files matching a query, or every file with '*'",
		ArgsUsage: "<query|*>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "partition",
				Usage:    "Partition to delete from: primary, cloud, archive or all",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			raw := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(raw) == "" {
				return fmt.Errorf("a query or %q is required", storage.DeleteAll)
			}
			return deleteFiles(ctx, c.String("config"), c.String("partition"), raw, os.Stdout)
		},
	}
}

// deleteFiles removes matching records from the selected partitions
func deleteFiles(ctx context.Context, configPath, partition, raw string, out io.Writer) error {
	scope, err := strictScope(partition)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	engine, storageManager, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeManager(storageManager)

	n, err := engine.Delete(ctx, scope, raw)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", scope, err)
	}

	renderOK(out, fmt.Sprintf("Deleted %s files from %s", formatNumber(int(n)), scope))
	return nil
}
