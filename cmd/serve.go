package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yeremiapane/restaurant-reservation/booking"
	"github.com/yeremiapane/restaurant-reservation/config"
	"github.com/yeremiapane/restaurant-reservation/live"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
	"github.com/yeremiapane/restaurant-reservation/notify"
	"github.com/yeremiapane/restaurant-reservation/repository"
	"github.com/yeremiapane/restaurant-reservation/router"
	"github.com/yeremiapane/restaurant-reservation/services"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			utils.InitLogger(cfg.LogLevel)
			utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.TTL)
			if cfg.Server.GinMode == gin.ReleaseMode {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if migrateUp {
				if err := repository.Migrate(db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				utils.InfoLogger.Info("AutoMigrate completed")
			}

			notifier, closeNotifier, err := newNotifier(cfg.Notify)
			if err != nil {
				return err
			}
			defer closeNotifier()

			policy := booking.NewPolicy(
				repository.NewReservationStore(db),
				booking.SystemClock{},
				booking.Config{ServiceDuration: cfg.Booking.ServiceDuration},
			)
			policy.Logger = utils.InfoLogger
			policy.OnDecision = middlewares.ObserveBooking

			hub := live.NewHub()
			hub.Logger = utils.InfoLogger

			monitor := services.NewQueueMonitor(policy, hub, cfg.Booking.QueueBroadcastInterval)
			monitor.Logger = utils.ErrorLogger
			monitor.Start()
			defer monitor.Stop()

			limiter := middlewares.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
			authLimiter := middlewares.NewStrictRateLimiter()
			go utils.RunBlacklistCleanup(ctx, time.Hour)
			go pruneLimiters(ctx, limiter, authLimiter)

			r := router.SetupRouter(router.Deps{
				DB:             db,
				Policy:         policy,
				Hub:            hub,
				Notifier:       notifier,
				BaseURL:        cfg.Server.BaseURL,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				RateLimiter:    limiter,
				AuthLimiter:    authLimiter,
			})

			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				utils.InfoLogger.Infof("Listening on port %s", cfg.Server.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			utils.InfoLogger.Info("shutting down")
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return cmd
}

func newNotifier(cfg config.NotifyConfig) (notify.Notifier, func(), error) {
	switch cfg.Driver {
	case "amqp":
		n, err := notify.DialAMQP(cfg.URL, cfg.Queue)
		if err != nil {
			return nil, nil, err
		}
		return n, func() { n.Close() }, nil
	case "log", "":
		return notify.NewLogNotifier(utils.InfoLogger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported NOTIFIER %q", cfg.Driver)
	}
}

func pruneLimiters(ctx context.Context, limiters ...*middlewares.RateLimiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range limiters {
				l.Prune(30 * time.Minute)
			}
		}
	}
}
