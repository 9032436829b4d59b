package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/kbukum/pipekit/bootstrap"
	"github.com/kbukum/pipekit/errors"
	"github.com/kbukum/pipekit/storage"
)

func newListCmd() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List objects under an S3 or storage prefix",
		UsageText: "pipecopy ls s3://bucket[/prefix] | store://[prefix]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file"},
			&cli.StringFlag{Name: "env-file", Usage: ".env file"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.InvalidInput("location", "ls takes exactly one location")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			o := &opener{storage: cfg.Storage, log: app.Logger}
			ctx := c.Context
			if ctx == nil {
				ctx = context.Background()
			}
			return app.RunTask(ctx, func(ctx context.Context) error {
				s, prefix, err := o.prefix(c.Args().First())
				if err != nil {
					return err
				}
				return list(ctx, s, prefix, c.App.Writer)
			})
		},
	}
}

// prefix resolves an ls argument. Unlike copy locations, the key part may
// be empty to list a whole bucket or store.
func (o *opener) prefix(raw string) (storage.Storage, string, error) {
	switch {
	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return nil, "", errors.InvalidInput("location", err.Error())
		}
		if u.Host == "" {
			return nil, "", errors.InvalidInput("location", "s3 prefixes look like s3://bucket/prefix")
		}
		s, err := o.bucket(u.Host)
		return s, strings.TrimPrefix(u.Path, "/"), err
	case strings.HasPrefix(raw, "store://"):
		s, err := o.store()
		return s, strings.TrimPrefix(raw, "store://"), err
	default:
		return nil, "", errors.InvalidInput("location", "ls lists s3:// or store:// prefixes")
	}
}

// list writes one line per object under prefix, sorted by path, followed by
// a total.
func list(ctx context.Context, s storage.Lister, prefix string, w io.Writer) error {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	slices.SortFunc(objects, func(a, b storage.Object) int { return cmp.Compare(a.Path, b.Path) })

	var total uint64
	for _, obj := range objects {
		total += uint64(obj.Size)
		if _, err := fmt.Fprintf(w, "%10s  %s  %s\n",
			humanize.IBytes(uint64(obj.Size)), obj.Modified.UTC().Format(time.DateTime), obj.Path); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "%s objects, %s\n", humanize.Comma(int64(len(objects))), humanize.IBytes(total))
	return err
}
