package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mishradev1/Dev-PlotTest/catalog"
	"github.com/mishradev1/Dev-PlotTest/config"
	"github.com/mishradev1/Dev-PlotTest/logging"
	"github.com/mishradev1/Dev-PlotTest/service"
)

// ============================================================================
// PLOTDATA CLI — Dataset ingestion and plot data from the command line
// ============================================================================

const version = "0.1.0"

// app carries what every subcommand needs once flags and config are read.
type app struct {
	v   *viper.Viper
	cfg config.Cfg
	log *logrus.Logger
	out io.Writer
}

func main() {
	a := &app{v: config.New(), out: os.Stdout}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "plotdata",
		Short:         "Ingest tabular datasets and generate plot-ready point data",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				a.v.SetConfigFile(configFile)
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg

			log, err := logging.New(cfg.Logger)
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default: plotdata.{yaml,json} in ., ./configs/, /etc/plotdata/)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text, json")
	bindFlag(a.v, "logger.level", flags.Lookup("log-level"))
	bindFlag(a.v, "logger.format", flags.Lookup("log-format"))

	root.AddCommand(newInspectCmd(a), newPlotCmd(a), newServeCmd(a))
	return root
}

// openStore opens the configured storage backend.
func openStore(cfg config.Cfg) (catalog.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return catalog.NewMemoryStore(), nil
	case config.BackendBolt:
		store, err := catalog.OpenBoltStore(cfg.Storage.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", cfg.Storage.Path)
		}
		return store, nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newService wires catalogs and the service over store. reg may be nil.
func newService(cfg config.Cfg, store catalog.Store, log logrus.FieldLogger, reg prometheus.Registerer, extra ...service.Option) (*service.Service, error) {
	datasets, err := catalog.NewDatasetCatalog(store, catalog.WithCacheSize(cfg.Storage.CacheSize))
	if err != nil {
		return nil, err
	}
	plots := catalog.NewPlotCatalog(store)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMaxUploadBytes(cfg.Ingest.MaxUploadBytes),
		service.WithNullTokens(cfg.Ingest.NullTokens),
	}
	if reg != nil {
		opts = append(opts, service.WithRegisterer(reg))
	}
	return service.New(datasets, plots, append(opts, extra...)...)
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
