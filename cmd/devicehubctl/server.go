package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/devicehub/pkg/config"
	"github.com/doodlesbykumbi/devicehub/pkg/logging"
	"github.com/doodlesbykumbi/devicehub/pkg/metrics"
	"github.com/doodlesbykumbi/devicehub/pkg/server"
	"github.com/doodlesbykumbi/devicehub/pkg/server/endpoints"
	"github.com/doodlesbykumbi/devicehub/pkg/server/middleware"
	"github.com/doodlesbykumbi/devicehub/pkg/store"
	"github.com/doodlesbykumbi/devicehub/pkg/syncer"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

func defaultPortInt() int {
	if p, err := strconv.Atoi(defaultPort()); err == nil {
		return p
	}
	return 8080
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the devicehub API server",
	Long: `Run the devicehub API server.

To run the server requires the environment variables DEVICEHUB_DATA_KEY and
DATABASE_URL. Set DEVICEHUB_API_SIGNING_KEY to require bearer tokens.

By default, database migrations are run on startup. Use --no-migrate to skip.
With --sync-every (or sync_interval_seconds) the server also runs a sync on
that schedule. The config file is watched and reloaded while running.`,
	Run: func(cmd *cobra.Command, args []string) {
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		every, _ := cmd.Flags().GetDuration("sync-every")

		if err := runServer(host, port, every, cmd.Flags().Changed("sync-every"), !noMigrate); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Duration("sync-every", 0, "run a sync on this interval (overrides sync_interval_seconds)")
}

// reloadingSyncer lets a config reload swap the driver between runs.
type reloadingSyncer struct {
	mu     sync.RWMutex
	driver *syncer.Driver
}

func (r *reloadingSyncer) Run(ctx context.Context, req syncer.Request) (syncer.Summary, error) {
	r.mu.RLock()
	d := r.driver
	r.mu.RUnlock()
	return d.Run(ctx, req)
}

func (r *reloadingSyncer) swap(d *syncer.Driver) {
	r.mu.Lock()
	r.driver = d
	r.mu.Unlock()
}

func runServer(host, port string, every time.Duration, everySet, migrate bool) error {
	log := logging.Default()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	config.Set(cfg)
	if !everySet {
		every = cfg.SyncInterval()
	}

	if migrate {
		log.Info().Msg("running database migrations")
		if err := runMigrations(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	database, stores, cipher, err := openStores()
	if err != nil {
		return err
	}
	defer closeDB(database)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collectorSet := metrics.New().MustRegister(reg)

	runner := &reloadingSyncer{driver: newDriver(stores, cfg, syncer.WithMetrics(collectorSet))}

	s := server.NewServer(stores, cipher, cfg, host, port)
	s.Syncer = runner
	s.Metrics = collectorSet
	s.Gatherer = reg
	s.JWTMiddleware = middleware.NewJWTAuthenticator(signingKey(), endpoints.PublicPaths...)
	if !s.JWTMiddleware.Enabled() {
		log.Warn().Msg("DEVICEHUB_API_SIGNING_KEY is not set, the API accepts unauthenticated requests")
	}
	endpoints.RegisterAll(s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		err := config.Watch(ctx, cfg.ConfigFilePath(), func(next *config.DevicehubConfig) {
			config.Set(next)
			runner.swap(newDriver(stores, next, syncer.WithMetrics(collectorSet)))
		})
		if err != nil {
			log.Warn().Err(err).Msg("config file is not watched")
		}
	}()

	if every > 0 {
		go scheduleSyncs(ctx, s, runner, every)
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", host+":"+port).Msg("running server")
		errc <- s.Start()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// scheduleSyncs runs a full sync every interval. A tick that finds a run in
// progress is skipped.
func scheduleSyncs(ctx context.Context, s *server.Server, runner server.SyncRunner, every time.Duration) {
	log := logging.Default()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	log.Info().Dur("interval", every).Msg("scheduled sync enabled")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			done, ok := s.TryBeginSync()
			if !ok {
				log.Info().Msg("sync already in progress, skipping scheduled run")
				continue
			}
			_, err := runner.Run(ctx, syncer.Request{Trigger: "schedule"})
			done()
			if err != nil && !errors.Is(err, store.ErrUnavailable) && ctx.Err() == nil {
				log.Error().Err(err).Msg("scheduled sync failed")
			}
		}
	}
}
