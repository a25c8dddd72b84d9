package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/JoneySinx/V2/pkg/config"
	"github.com/JoneySinx/V2/pkg/core"
	"github.com/JoneySinx/V2/pkg/query"
	"github.com/JoneySinx/V2/pkg/remote"
	"github.com/JoneySinx/V2/pkg/storage"
	"github.com/urfave/cli/v3"
)

// IndexCommand creates the index command
func IndexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Manage indexed files",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Index a file, optionally uploading its content to the remote",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "partition",
						Usage:    "Partition to save to: primary, cloud or archive",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Unique file id (defaults to the locator)",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "File name (defaults to the base name of --file)",
					},
					&cli.StringFlag{
						Name:  "caption",
						Usage: "Searchable caption",
					},
					&cli.Int64Flag{
						Name:  "size",
						Usage: "Size in bytes (taken from --file when given)",
					},
					&cli.StringFlag{
						Name:  "locator",
						Usage: "Remote object id",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Local file to upload to the remote under --locator",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := indexOptions{
						Partition: c.String("partition"),
						ID:        c.String("id"),
						Name:      c.String("name"),
						Caption:   c.String("caption"),
						Size:      c.Int64("size"),
						Locator:   c.String("locator"),
						File:      c.String("file"),
					}
					return indexAdd(ctx, c.String("config"), opts, os.Stdout)
				},
			},
		},
	}
}

type indexOptions struct {
	Partition string
	ID        string
	Name      string
	Caption   string
	Size      int64
	Locator   string
	File      string
}

func indexAdd(ctx context.Context, configPath string, opts indexOptions, out io.Writer) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var transport remote.Transport
	if opts.File != "" {
		transport, err = remote.New(cfg.Remote)
		if err != nil {
			return fmt.Errorf("creating remote: %w", err)
		}
	}

	storageManager, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer closeManager(storageManager)

	return addFile(ctx, storageManager, transport, opts, out)
}

// addFile saves one record. A record whose id is already indexed is
// reported as a duplicate, not as an error.
func addFile(ctx context.Context, storageManager *storage.Manager, transport remote.Transport, opts indexOptions, out io.Writer) error {
	p, err := strictPartition(opts.Partition)
	if err != nil {
		return err
	}

	rec := core.FileRecord{
		ID:        opts.ID,
		Name:      query.CleanMention(opts.Name),
		Caption:   query.CleanMention(opts.Caption),
		Size:      opts.Size,
		Locator:   opts.Locator,
		Partition: p,
	}

	if opts.File != "" && rec.Name == "" {
		rec.Name = query.CleanMention(filepath.Base(opts.File))
	}
	if rec.ID == "" {
		rec.ID = rec.Locator
	}
	if rec.ID == "" || rec.Name == "" {
		return fmt.Errorf("an id (or locator) and a name are required: %w", core.ErrInvalidInput)
	}

	store, err := storageManager.Store(p)
	if err != nil {
		return err
	}

	// An indexed id must not reach the remote, or the upload would replace
	// the object the existing record points at.
	_, err = store.Get(ctx, rec.ID)
	if err == nil {
		renderFailed(out, fmt.Sprintf("dup: %s already indexed in %s", rec.ID, p))
		return nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("checking %s: %w", rec.ID, err)
	}

	if opts.File != "" {
		size, err := uploadFile(ctx, transport, opts.File, opts.Locator)
		if err != nil {
			return err
		}
		rec.Size = size
	}

	err = store.Insert(ctx, rec)
	if errors.Is(err, storage.ErrDuplicate) {
		renderFailed(out, fmt.Sprintf("dup: %s already indexed in %s", rec.ID, p))
		return nil
	}
	if err != nil {
		return fmt.Errorf("saving %s: %w", rec.ID, err)
	}

	renderOK(out, fmt.Sprintf("saved %s (%s) to %s", rec.Name, formatSize(rec.Size), p))
	return nil
}

func uploadFile(ctx context.Context, transport remote.Transport, path, locator string) (int64, error) {
	id, err := strconv.ParseInt(locator, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("--locator must be a numeric object id when uploading: %w", core.ErrInvalidInput)
	}

	uploader, ok := remote.AsUploader(transport)
	if !ok {
		return 0, fmt.Errorf("remote %T does not accept uploads", transport)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	name := filepath.Base(path)
	if err := uploader.Upload(ctx, id, name, mime.TypeByExtension(filepath.Ext(name)), f, st.Size()); err != nil {
		return 0, fmt.Errorf("uploading %s: %w", path, err)
	}
	return st.Size(), nil
}
