package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/JoneySinx/V2/pkg/api"
	"github.com/JoneySinx/V2/pkg/config"
	"github.com/JoneySinx/V2/pkg/log"
	"github.com/JoneySinx/V2/pkg/remote"
	"github.com/JoneySinx/V2/pkg/search"
)

var logger = log.ForService("server")

// optimizeInterval is how often the partition stores are optimized while the
// server runs.
const optimizeInterval = time.Hour

// WebCommand creates the web command serving the JSON API, the watch and
// download endpoints and the landing page
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides web.port)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides web.host)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

// startWebServer serves until SIGINT or SIGTERM. SIGHUP and edits to the
// config file reload the [search] section.
func startWebServer(ctx context.Context, configPath, host, port string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if host == "" {
		host = cfg.Web.Host
	}
	if port == "" {
		port = cfg.Web.Port
	}

	engine, storageManager, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer closeManager(storageManager)

	transport, err := remote.New(cfg.Remote)
	if err != nil {
		return fmt.Errorf("creating remote: %w", err)
	}

	cursors := search.NewCursorCache(cfg.Search.CursorCacheSize, cfg.Search.CursorTTL.Duration)
	apiServer := api.NewServer(engine, cursors, transport, api.Options{
		PageSize:     cfg.Search.PageSize,
		ChunkTimeout: cfg.Remote.ChunkTimeout.Duration,
		PublicURL:    cfg.Web.PublicURL,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting web server on http://%s", server.Addr)
		logger.Infof("Public URL: %s", cfg.Web.PublicURL)
		logger.Debugf("Available endpoints:")
		logger.Debugf("  GET / - Landing page")
		logger.Debugf("  GET /watch/{id} - Playback page")
		logger.Debugf("  GET /download/{id} - Ranged download")
		logger.Debugf("  GET /api/search - Cascading search")
		logger.Debugf("  GET /api/search/next - Next page by cursor")
		logger.Debugf("  GET /api/files/{id} - Indexed record by id")
		logger.Debugf("  GET /api/partitions - Partitions and counts")
		logger.Debugf("  GET /api/stats - Storage statistics")
		logger.Debugf("  GET /health - Health check")
		logger.Debugf("  GET /metrics - Prometheus metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	// Nil channels block forever, so a missing watcher just disables
	// file-triggered reloads.
	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("failed to close config file watcher: %v", err)
			}
		}()

		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			logger.Infof("Watching config file for changes: %s", configPath)
		}
		events, watchErrs = watcher.Events, watcher.Errors
	}

	optimizeTicker := time.NewTicker(optimizeInterval)
	defer optimizeTicker.Stop()

	reload := func(reason string) {
		if err := reloadSearchConfig(configPath, engine, apiServer); err != nil {
			logger.Errorf("Failed to reload configuration (%s): %v", reason, err)
			return
		}
		logger.Infof("Configuration reloaded (%s)", reason)
	}

	for {
		select {
		case err, ok := <-serverErr:
			if ok && err != nil {
				return fmt.Errorf("serving: %w", err)
			}
			return nil
		case <-ctx.Done():
			return shutdown(server)
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				reload("SIGHUP")
			case syscall.SIGINT, syscall.SIGTERM:
				return shutdown(server)
			}
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			// Editors often replace the file with an atomic rename.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					logger.Warnf("Config file was removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					logger.Warnf("failed to re-add config file to watcher: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
			reload(event.Op.String())
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warnf("Config file watcher error: %v", err)
		case <-optimizeTicker.C:
			if err := storageManager.Optimize(ctx); err != nil {
				logger.Warnf("periodic optimize failed: %v", err)
			}
		}
	}
}

// reloadSearchConfig applies the [search] section of the config file to the
// running engine and API. Cursor cache sizing, [remote] and [web] take effect
// on restart only.
func reloadSearchConfig(configPath string, engine *search.Engine, apiServer *api.Server) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	engine.SetOptions(engineOptions(cfg.Search))
	apiServer.SetPageSize(cfg.Search.PageSize)
	logger.Debugf("search options: concurrent=%t timeout=%s languages=%v page_size=%d",
		cfg.Search.Concurrent, cfg.Search.Timeout.Duration, cfg.Search.Languages, cfg.Search.PageSize)
	return nil
}

func shutdown(server *http.Server) error {
	logger.Infof("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
