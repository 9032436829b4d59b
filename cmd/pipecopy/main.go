// Command pipecopy copies and converts data between files, standard streams
// and S3 objects through pipekit pipelines, rendering live progress.
//
//	pipecopy copy --from access.log --to s3://logs/access.log.zst
//	pipecopy convert --from people.csv --to people.json.gz
//	pipecopy ls s3://logs/2024/
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kbukum/pipekit/bootstrap"
	"github.com/kbukum/pipekit/compress"
	"github.com/kbukum/pipekit/config"
	"github.com/kbukum/pipekit/pipeline"
	"github.com/kbukum/pipekit/version"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pipecopy:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                 serviceName,
		Usage:                "copy and convert data through pipelines",
		UsageText:            "pipecopy [command]",
		Version:              version.Get().Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			newCopyCmd(),
			newConvertCmd(),
			newListCmd(),
			newVersionCmd(),
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from", Aliases: []string{"f"}, Usage: "source path, s3://bucket/key or - for stdin", Required: true},
		&cli.StringFlag{Name: "to", Aliases: []string{"t"}, Usage: "target path, s3://bucket/key or - for stdout", Required: true},
		&cli.StringFlag{Name: "decode", Usage: fmt.Sprintf("source compression %v, detected from the extension by default", compress.Names())},
		&cli.StringFlag{Name: "encode", Usage: fmt.Sprintf("target compression %v, detected from the extension by default", compress.Names())},
		&cli.BoolFlag{Name: "append", Usage: "append to an existing target file instead of truncating it"},
		&cli.BoolFlag{Name: "serial", Usage: "run synchronous workers on a single goroutine"},
		&cli.DurationFlag{Name: "interval", Usage: "progress report interval"},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "do not render progress"},
		&cli.StringFlag{Name: "serve", Usage: "serve health and pipeline reports on `ADDR` while running, e.g. :8080"},
		&cli.BoolFlag{Name: "wait", Usage: "with --serve, keep serving after the pipeline resolves until interrupted"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file"},
		&cli.StringFlag{Name: "env-file", Usage: ".env file"},
	}
}

func newCopyCmd() *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy bytes, recompressing on the way",
		UsageText: "pipecopy copy --from <location> --to <location> [options]",
		Flags:     commonFlags(),
		Action: func(c *cli.Context) error {
			return run(c, job{
				from: c.String("from"), to: c.String("to"),
				decode: c.String("decode"), encode: c.String("encode"),
			})
		},
	}
}

func newConvertCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{Name: "from-format", Usage: fmt.Sprintf("source record format %v", formats)},
		&cli.StringFlag{Name: "to-format", Usage: fmt.Sprintf("target record format %v", formats)},
	)
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert records between CSV, JSON, JSON lines and YAML",
		UsageText: "pipecopy convert --from <location> --to <location> [options]",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			return run(c, job{
				from: c.String("from"), to: c.String("to"),
				decode: c.String("decode"), encode: c.String("encode"),
				fromFormat: c.String("from-format"), toFormat: c.String("to-format"),
				convert: true,
			})
		},
	}
}

func newVersionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintln(c.App.Writer, version.Get().String())
			return err
		},
	}
}

func loadConfig(c *cli.Context) (*Config, error) {
	var opts []config.LoaderOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if path := c.String("env-file"); path != "" {
		opts = append(opts, config.WithEnvFile(path))
	}
	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	if c.Bool("serial") {
		cfg.Pipeline.Serial = true
	}
	if c.IsSet("interval") {
		cfg.Pipeline.ReportInterval = c.Duration("interval").String()
	}
	return &cfg, nil
}

func run(c *cli.Context, j job) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	rt := newRuntime(app)
	rt.withTelemetry()
	if err := rt.withServer(c.String("serve")); err != nil {
		return err
	}

	o := &opener{storage: cfg.Storage, log: app.Logger, stdin: os.Stdin, stdout: os.Stdout}
	if c.Bool("append") {
		o.existing = pipeline.Append
	}
	var progress io.Writer = os.Stderr
	if c.Bool("quiet") {
		progress = nil
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return app.RunTask(ctx, func(ctx context.Context) error {
		p, err := j.build(o, rt.options())
		if err != nil {
			return err
		}
		err = execute(ctx, p, rt.registry, cfg, progress)
		if c.Bool("wait") && c.String("serve") != "" {
			app.Logger.Info("Pipeline resolved, serving until interrupted")
			<-ctx.Done()
		}
		return err
	})
}
