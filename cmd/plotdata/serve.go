package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mishradev1/Dev-PlotTest/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API over the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	f := cmd.Flags()
	f.String("listen", ":8080", "HTTP listen address")
	f.String("store", "bolt", "Storage backend: bolt, memory")
	f.String("db", "plotdata.db", "Bolt database path")
	bindFlag(a.v, "server.listen_address", f.Lookup("listen"))
	bindFlag(a.v, "storage.backend", f.Lookup("store"))
	bindFlag(a.v, "storage.path", f.Lookup("db"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	store, err := openStore(a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.log.WithError(err).Warn("close store")
		}
	}()

	var (
		reg     *prometheus.Registry
		srvOpts = []server.Option{server.WithLogger(a.log), server.WithMaxUploadBytes(a.cfg.Ingest.MaxUploadBytes)}
	)
	if a.cfg.EnablePrometheus {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		srvOpts = append(srvOpts, server.WithGatherer(reg))
	}

	var registerer prometheus.Registerer
	if reg != nil {
		registerer = reg
	}
	svc, err := newService(a.cfg, store, a.log, registerer)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:        a.cfg.Server.ListenAddress,
		Handler:     server.New(svc, srvOpts...),
		ReadTimeout: a.cfg.Server.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.WithFields(logrus.Fields{
			"addr":    httpServer.Addr,
			"backend": a.cfg.Storage.Backend,
		}).Info("🚀 listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("🛑 shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
