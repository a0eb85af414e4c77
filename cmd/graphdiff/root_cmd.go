package main

import (
	"io"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/fluxcd/graphdiff/pkg/config"
	"github.com/fluxcd/graphdiff/pkg/diff"
	gderrors "github.com/fluxcd/graphdiff/pkg/errors"
)

type rootOpts struct {
	configPath string
	logFormat  string
	path       string
	verbose    bool

	logger  log.Logger
	metrics *stdprometheus.Registry
	engine  diff.Service
}

func newRoot() *rootOpts {
	return &rootOpts{}
}

var rootLongHelp = strings.TrimSpace(`
graphdiff shows the differences between two YAML or JSON documents,
member by member.

Workflow:
  graphdiff diff old.yaml new.yaml                    # What changed?
  graphdiff diff -o json old.yaml new.yaml            # ... as JSON
  graphdiff diff --path spec old.yaml new.yaml        # What changed under spec?
  graphdiff compare -c graphdiff.yaml old.yaml new.yaml # Same, ignoring what the config says to?
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "graphdiff",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file giving members to ignore, lists to diff as unordered, and limits")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "fmt", "change the log format (fmt or json)")
	cmd.PersistentFlags().StringVarP(&opts.path, "path", "p", "", "diff only what is at this dot separated path in each document")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every diff and comparison, and members skipped")

	cmd.AddCommand(
		newDiff(opts).Command(),
		newCompare(opts).Command(),
	)
	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			if os.IsNotExist(err) {
				return gderrors.MissingDocument(opts.configPath, err)
			}
			return gderrors.InvalidConfig(opts.configPath, err)
		}
	}

	format := cfg.LogFormat
	if cmd.Flags().Changed("log-format") {
		format = opts.logFormat
	}
	logger, err := newLogger(format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if opts.verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowWarn())
	}
	opts.logger = logger

	engineLogger := log.With(logger, "component", "engine")
	dc, err := cfg.Engine(config.NewTypeResolver(), engineLogger)
	if err != nil {
		return gderrors.InvalidConfig(opts.configPath, err)
	}
	engine, err := diff.New(dc)
	if err != nil {
		return gderrors.InvalidConfig(opts.configPath, err)
	}
	opts.metrics = stdprometheus.NewRegistry()
	opts.engine = diff.InstrumentingMiddleware(diff.NewMetrics(opts.metrics))(engine)
	if opts.verbose {
		opts.engine = diff.LoggingMiddleware(level.Debug(engineLogger))(opts.engine)
	}
	return nil
}

// logMetrics logs the engine metrics gathered during the
// command, at debug level.
func (opts *rootOpts) logMetrics() {
	families, err := opts.metrics.Gather()
	if err != nil {
		level.Warn(opts.logger).Log("msg", "gathering metrics", "err", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			keyvals := []interface{}{"metric", mf.GetName()}
			for _, lp := range m.GetLabel() {
				keyvals = append(keyvals, lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				keyvals = append(keyvals, "value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				keyvals = append(keyvals, "count", m.GetHistogram().GetSampleCount(), "sum", m.GetHistogram().GetSampleSum())
			}
			level.Debug(opts.logger).Log(keyvals...)
		}
	}
}

func newLogger(format string, w io.Writer) (log.Logger, error) {
	var logger log.Logger
	switch format {
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	case "fmt":
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	default:
		return nil, errorInvalidLogFormat
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)
	return logger, nil
}
