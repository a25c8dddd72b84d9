package main

import (
	"context"
	stdlog "log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/JoneySinx/V2/cmd"
	"github.com/JoneySinx/V2/pkg/config"
	"github.com/JoneySinx/V2/pkg/log"
)

func main() {
	app := &cli.Command{
		Name:  "finder",
		Usage: "Search indexed media files and stream them over HTTP",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			log.SetGlobalDebug(c.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.WebCommand(),
			cmd.SearchCommand(),
			cmd.StatsCommand(),
			cmd.DeleteCommand(),
			cmd.IndexCommand(),
			cmd.OptimizeCommand(),
			cmd.VersionCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	log.Flush()
	if err != nil {
		stdlog.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		stdlog.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
