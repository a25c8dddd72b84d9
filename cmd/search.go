package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JoneySinx/V2/pkg/config"
	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/search"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search indexed files",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query (alternative to positional arguments)",
			},
			&cli.StringFlag{
				Name:  "scope",
				Usage: "Partition to search: primary, cloud, archive or all",
				Value: core.ScopeAll,
			},
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Index of the first result",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results (defaults to search.page_size)",
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: "Only keep results whose name contains this language",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			raw := c.String("query")
			if raw == "" {
				raw = strings.Join(c.Args().Slice(), " ")
			}
			if strings.TrimSpace(raw) == "" {
				return fmt.Errorf("a search query is required")
			}
			return searchFiles(ctx, c.String("config"), raw, c.String("scope"), c.Int("offset"), c.Int("limit"), c.String("lang"), os.Stdout)
		},
	}
}

// searchFiles runs one cascading search and prints the page
func searchFiles(ctx context.Context, configPath, raw, scope string, offset, limit int, lang string, out io.Writer) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	engine, storageManager, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeManager(storageManager)

	q := search.NewQuery(raw, core.ParseScope(scope), offset, limit, cfg.Search.PageSize, lang)
	res, err := engine.Search(ctx, q)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	renderResults(out, q, res)
	return nil
}
