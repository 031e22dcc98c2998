package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"placeetl/internal/config"
	"placeetl/internal/datasource/file"
	"placeetl/internal/ingest"
)

// options holds the command-line flags. Flags override the pipeline file
// only when set explicitly.
type options struct {
	configPath     string
	db             string
	storageKind    string
	echo           bool
	noBootstrap    bool
	rejectLog      string
	workers        int
	logLevel       string
	logFormat      string
	metricsBackend string
	pushgatewayURL string
	datadogAddr    string
	inputList      string
	validate       bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "placeetl [flags] [files...]",
		Short: "Load r/place placement dumps into a SQL store",
		Long: `
Reads 2017 and 2022 r/place CSV dumps (plain, .gz or .zst, local paths or
http(s) URLs; stdin when no file is given), normalizes every line into a
tile or rectangle placement and writes them in batches to the placements
and placements_moderation tables.
`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			p, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			if err := o.apply(c.Flags().Changed, &p, args); err != nil {
				return err
			}
			p.ApplyEnv(nil)

			issues := config.ValidatePipeline(p)
			for _, iss := range issues {
				fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if config.HasErrors(issues) {
				return errors.New("configuration is invalid")
			}
			if o.validate {
				fmt.Fprintln(stdout, "configuration is valid")
				return nil
			}

			logger, err := newLogger(p.Logging)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			flushMetrics := setupMetrics(p, logger)
			defer flushMetrics()

			start := time.Now()
			sum, err := ingest.Run(c.Context(), p, ingest.Deps{Logger: logger, Echo: stdout})
			if err != nil {
				logger.Error("run failed", zap.Error(err))
				return err
			}
			logger.Info("completed",
				zap.Duration("took", time.Since(start).Truncate(time.Millisecond)),
				zap.Int64("rows", sum.TileRows+sum.RectangleRows),
			)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.configPath, "config", "c", "", "pipeline config file (YAML or JSON)")
	flags.StringVar(&o.db, "db", "placements.db", "destination DSN; a file path for sqlite")
	flags.StringVar(&o.storageKind, "storage", "sqlite", "storage backend: sqlite, postgres, mssql or mysql")
	flags.BoolVar(&o.echo, "echo", false, "print every normalized record to stdout")
	flags.BoolVar(&o.noBootstrap, "no-bootstrap", false, "keep existing tables instead of dropping and recreating them")
	flags.StringVar(&o.rejectLog, "reject-log", "", "write rejected lines to this CSV file")
	flags.IntVar(&o.workers, "workers", 1, "normalization workers")
	flags.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&o.logFormat, "log-format", "json", "json or console")
	flags.StringVar(&o.metricsBackend, "metrics-backend", "none", "none, pushgateway or datadog (env METRICS_BACKEND)")
	flags.StringVar(&o.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	flags.StringVar(&o.datadogAddr, "datadog-addr", "", "DogStatsD address (env DD_AGENT_ADDR)")
	flags.StringVar(&o.inputList, "input-list", "", "file listing one input path or URL per line")
	flags.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")

	cmd.AddCommand(newProbeCommand(stdout, stderr))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd
}

// apply copies explicitly set flags and positional inputs onto p.
// Positional inputs replace the file's inputs; --input-list entries follow
// them.
func (o *options) apply(changed func(string) bool, p *config.Pipeline, args []string) error {
	if changed("db") {
		p.Storage.DSN = o.db
	}
	if changed("storage") {
		p.Storage.Kind = o.storageKind
		if !changed("db") && o.storageKind != "sqlite" && p.Storage.DSN == config.DefaultPipeline().Storage.DSN {
			p.Storage.DSN = ""
		}
	}
	if changed("echo") {
		p.Echo = o.echo
	}
	if changed("no-bootstrap") {
		p.Storage.Bootstrap = !o.noBootstrap
	}
	if changed("reject-log") {
		p.RejectLog = o.rejectLog
	}
	if changed("workers") {
		p.Runtime.NormalizeWorkers = o.workers
	}
	if changed("log-level") {
		p.Logging.Level = o.logLevel
	}
	if changed("log-format") {
		p.Logging.Format = o.logFormat
	}
	if changed("metrics-backend") {
		p.Metrics.Backend = o.metricsBackend
	}
	if changed("pushgateway-url") {
		p.Metrics.PushgatewayURL = o.pushgatewayURL
	}
	if changed("datadog-addr") {
		p.Metrics.DatadogAddr = o.datadogAddr
	}

	if len(args) > 0 {
		p.Inputs = append([]string(nil), args...)
	}
	if o.inputList != "" {
		list, err := file.ReadList(o.inputList)
		if err != nil {
			return err
		}
		p.Inputs = append(p.Inputs, list...)
	}
	return nil
}
