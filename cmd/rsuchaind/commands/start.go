package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	abciserver "github.com/tendermint/tendermint/abci/server"
	"github.com/tendermint/tendermint/libs/log"
	dbm "github.com/tendermint/tm-db"
	"golang.org/x/sync/errgroup"

	"github.com/rsuchain/rsuchain/app"
	"github.com/rsuchain/rsuchain/config"
	"github.com/rsuchain/rsuchain/internal/eventsink"
	"github.com/rsuchain/rsuchain/internal/eventsink/psql"
)

const shutdownTimeout = 5 * time.Second

// StartCmd runs the ABCI application until interrupted.
var StartCmd = &cobra.Command{
	Use:     "start",
	Aliases: []string{"run"},
	Short:   "Run the ABCI application",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return startApp(ctx, conf, logger)
	},
}

func init() {
	AddStartFlags(StartCmd)
}

// AddStartFlags exposes the most used settings as flags.
func AddStartFlags(cmd *cobra.Command) {
	cmd.Flags().String("abci.laddr", conf.ABCI.ListenAddress, "address the ABCI server listens on")
	cmd.Flags().String("abci.transport", conf.ABCI.Transport, "ABCI transport (socket | grpc)")
	cmd.Flags().String("db_backend", conf.DBBackend, "database backend")
	cmd.Flags().Bool("instrumentation.prometheus", conf.Instrumentation.Prometheus, "serve Prometheus metrics")
	cmd.Flags().String("event_sink.type", conf.EventSink.Type, "adjudication export (null | psql)")
	cmd.Flags().String("event_sink.psql_conn", conf.EventSink.PsqlConn, "PostgreSQL connection string")
}

func newEventSink(c *config.EventSinkConfig) (eventsink.Sink, error) {
	switch eventsink.Type(c.Type) {
	case eventsink.PSQL:
		es, err := psql.NewEventSink(c.PsqlConn, c.ChainID)
		if err != nil {
			return nil, err
		}
		if err := es.Migrate(); err != nil {
			_ = es.Stop()
			return nil, fmt.Errorf("migrate event sink: %w", err)
		}
		return es, nil
	default:
		return eventsink.NewNullSink(), nil
	}
}

func startApp(ctx context.Context, c *config.Config, logger log.Logger) error {
	db, err := dbm.NewDB("rsuchain", dbm.BackendType(c.DBBackend), c.DBDir())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sink, err := newEventSink(c.EventSink)
	if err != nil {
		db.Close()
		return err
	}
	defer func() {
		if err := sink.Stop(); err != nil {
			logger.Error("failed to stop event sink", "err", err)
		}
	}()

	metrics := app.NopMetrics()
	if c.Instrumentation.Prometheus {
		metrics = app.PrometheusMetrics(c.Instrumentation.Namespace)
	}

	application, err := app.NewApplication(db,
		app.WithSink(sink),
		app.WithSinkTimeout(c.EventSink.Timeout),
		app.WithMetrics(metrics),
	)
	if err != nil {
		db.Close()
		return err
	}
	defer application.Close()
	application.SetLogger(logger.With("module", "app"))

	srv, err := abciserver.NewServer(c.ABCI.ListenAddress, c.ABCI.Transport, application)
	if err != nil {
		return err
	}
	srv.SetLogger(logger.With("module", "abci-server"))
	if err := srv.Start(); err != nil {
		return err
	}
	logger.Info("ABCI server started", "laddr", c.ABCI.ListenAddress, "transport", c.ABCI.Transport,
		"sink", sink.Type())

	g, ctx := errgroup.WithContext(ctx)
	if c.Instrumentation.Prometheus {
		metricsSrv := startPrometheusServer(g, c.Instrumentation.PrometheusListenAddr, logger)
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(sctx)
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("stopping ABCI server")
		return srv.Stop()
	})
	return g.Wait()
}

// startPrometheusServer serves the default registry at /metrics.
func startPrometheusServer(g *errgroup.Group, addr string, logger log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{MaxRequestsInFlight: 3},
		),
	))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("prometheus server: %w", err)
		}
		return nil
	})
	return srv
}
