package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/shpitdev/polaris-autoingest/internal/app"
	"github.com/shpitdev/polaris-autoingest/internal/config"
	"github.com/shpitdev/polaris-autoingest/internal/logging"
	"github.com/shpitdev/polaris-autoingest/internal/version"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/io/local"
	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/redact"
	"github.com/shpitdev/polaris-autoingest/pkg/polaris"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args)
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", redact.Secrets(err.Error()))
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for every error that reaches main: only usage and
// configuration problems are reported through the exit status.
func exitCode(err error) int {
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 2
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:    "autoingest",
		Usage:   "discover the schema of storage objects and submit batch ingestion jobs",
		Version: version.Current,
		Description: `For every object: ask the sampling API for its input schema, map the
timestamp field onto __time, and submit a batch job that loads the object
into the target table (created if missing).

The API key is read from POLARIS_API_KEY. Per-object failures are logged and
do not change the exit status; only usage and configuration errors exit 2.

Example:
  autoingest --org imply-sa --region us-east-1 --cloud aws --project <id> \
    --source-type azure --connection kh-azure-connection --mode uris \
    --object azureStorage://bucket/test/metric-data-sample.json \
    --file-format nd-json --table metric-data --timestamp-field timeStamp`,
		Writer:                    stdout,
		ErrWriter:                 stderr,
		DisableSliceFlagSeparator: true,
		ExitErrHandler:            func(*cli.Context, error) {},
		Flags:                     runFlags(),
		Action:                    runAction,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(c *cli.Context) error {
					_, _ = fmt.Fprintln(c.App.Writer, version.Current)
					return nil
				},
			},
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML run file; flags override its values"},
		&cli.StringFlag{Name: "org", Usage: "Organization name"},
		&cli.StringFlag{Name: "region", Usage: "Region, e.g. us-east-1"},
		&cli.StringFlag{Name: "cloud", Usage: "Cloud provider, e.g. aws"},
		&cli.StringFlag{Name: "project", Usage: "Project ID"},
		&cli.StringFlag{Name: "source-type", Usage: "Source type of the connection, e.g. s3 or azure"},
		&cli.StringFlag{Name: "connection", Aliases: []string{"con"}, Usage: "Connection name"},
		&cli.StringFlag{Name: "mode", Usage: "'uris' when objects are full URIs, 'objects' for names relative to the connection"},
		&cli.StringSliceFlag{Name: "object", Usage: "Object reference (repeatable)"},
		&cli.StringFlag{Name: "objects-file", Usage: "File listing object references (.yaml, .csv with an 'object' column, or one per line)"},
		&cli.StringFlag{Name: "file-format", Usage: "File format of the data, e.g. nd-json"},
		&cli.StringFlag{Name: "table", Usage: "Target table name"},
		&cli.StringFlag{Name: "timestamp-field", Usage: "Input field holding epoch milliseconds for __time"},
		&cli.StringFlag{Name: "base-url", Usage: "Override the API scheme and host (env: " + polaris.EnvBaseURL + ")"},
		&cli.StringFlag{Name: "ca-file", Usage: "PEM bundle to trust for TLS (env: " + polaris.EnvCAPath + ")"},
		&cli.Float64Flag{Name: "rate-limit-rps", Usage: "Pace API requests to this rate, 0 disables"},
		&cli.DurationFlag{Name: "timeout", Usage: "Per-request timeout, 0 uses the HTTP client defaults"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (env: " + logging.EnvLevel + ")"},
	}
}

func runAction(c *cli.Context) error {
	env := polaris.LoadEnv()

	cfg, err := resolveConfig(c, env)
	if err != nil {
		return cli.Exit(redact.Secrets(err.Error()), 2)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	mode, _ := cfg.AddressingMode()

	log, err := logging.New(c.App.Writer, cfg.LogLevel)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if env.APIKey == "" {
		log.Warn(polaris.EnvAPIKey + " is not set; requests will be rejected by the API")
	}

	endpoint := polaris.Endpoint{
		Org:     cfg.Org,
		Region:  cfg.Region,
		Cloud:   cfg.Cloud,
		Project: cfg.Project,
		BaseURL: cfg.BaseURL,
	}
	client, err := polaris.NewClient(endpoint, env.APIKey, polaris.Options{
		Timeout:      cfg.Timeout,
		RateLimitRPS: cfg.RateLimitRPS,
		CAPath:       cfg.CAPath,
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	log.Info("api endpoints",
		"sampling", endpoint.URL(polaris.EndpointSamplingRaw),
		"jobs", endpoint.URL(polaris.EndpointJobs),
	)

	app.Run(c.Context, client, app.Params{
		SourceType:     cfg.SourceType,
		ConnectionName: cfg.Connection,
		Mode:           mode,
		FileFormat:     cfg.FileFormat,
		TableName:      cfg.Table,
		TimestampField: cfg.TimestampField,
	}, cfg.Objects, log)
	return nil
}

// resolveConfig layers the run file, the environment and explicit flags, in
// increasing precedence. Object lists are concatenated in the same order.
func resolveConfig(c *cli.Context, env polaris.Env) (config.Config, error) {
	var cfg config.Config
	if p := c.String("config"); p != "" {
		loaded, err := config.Load(p)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if env.BaseURL != "" {
		cfg.BaseURL = env.BaseURL
	}
	if env.CAPath != "" {
		cfg.CAPath = env.CAPath
	}

	strFlags := map[string]*string{
		"org":             &cfg.Org,
		"region":          &cfg.Region,
		"cloud":           &cfg.Cloud,
		"project":         &cfg.Project,
		"source-type":     &cfg.SourceType,
		"connection":      &cfg.Connection,
		"mode":            &cfg.Mode,
		"file-format":     &cfg.FileFormat,
		"table":           &cfg.Table,
		"timestamp-field": &cfg.TimestampField,
		"base-url":        &cfg.BaseURL,
		"ca-file":         &cfg.CAPath,
		"log-level":       &cfg.LogLevel,
	}
	for name, dst := range strFlags {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("rate-limit-rps") {
		cfg.RateLimitRPS = c.Float64("rate-limit-rps")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}

	if p := c.String("objects-file"); p != "" {
		objects, err := local.ReadObjectsFile(p)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Objects = append(cfg.Objects, objects...)
	}
	cfg.Objects = append(cfg.Objects, c.StringSlice("object")...)
	return cfg, nil
}
