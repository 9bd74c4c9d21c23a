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

	"slot-booking/internal/consumer"
	"slot-booking/internal/scheduler"
	"slot-booking/internal/usecase"
	"slot-booking/internal/wire"
	"slot-booking/pkg/mq"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API, the expiry sweeper and the payment consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rt, err := bootstrap(ctx, migrateUp)
			if err != nil {
				return err
			}
			defer rt.Close()

			config, logger := rt.config, rt.logger
			logger.Info("Starting application",
				zap.String("app", config.App.Name),
				zap.String("port", config.App.Port),
				zap.String("store", config.App.StoreDriver),
				zap.Bool("debug", config.App.Debug),
			)

			rec, err := rt.recorder(ctx)
			if err != nil {
				return err
			}

			events := usecase.NopPublisher()
			if config.AMQP.URL != "" {
				pub, err := mq.NewPublisher(config.AMQP.URL, config.AMQP.Exchange)
				if err != nil {
					return err
				}
				defer pub.Close()
				events = pub
			}

			service := usecase.NewService(rt.repo, config, rec, events, time.Now, logger)

			if config.AMQP.URL != "" {
				c, err := mq.NewConsumer(config.AMQP.URL, config.AMQP.Exchange, config.AMQP.Queue,
					[]string{mq.RKPaymentPaid}, 10)
				if err != nil {
					return err
				}
				defer c.Close()

				payments := consumer.NewPaymentConsumer(c, service.Booking, config.App.Name, logger)
				go func() {
					if err := payments.Run(ctx); err != nil {
						logger.Error("Payment consumer stopped", zap.Error(err))
					}
				}()
				logger.Info("Consuming payments", zap.String("queue", config.AMQP.Queue))
			}

			if config.Sweeper.Interval > 0 {
				sweeper := &scheduler.Sweeper{
					Repo:      rt.repo,
					Manager:   service.Manager,
					Recorder:  rec,
					Interval:  config.Sweeper.Interval,
					BatchSize: config.Sweeper.BatchSize,
					Now:       time.Now,
					Log:       logger.With(zap.String("component", "sweeper")),
				}
				go func() { _ = sweeper.Run(ctx) }()
			}

			app := wire.Wiring(service, config, logger)
			if app.Limiter != nil {
				app.Limiter.StartJanitor(ctx, 2*time.Minute)
			}

			return serve(ctx, app.Router, config.App.Port, logger)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, handler http.Handler, port string, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
