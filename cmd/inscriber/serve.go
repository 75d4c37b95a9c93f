package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/totegamma/concrnt-inscriber/client"
	"github.com/totegamma/concrnt-inscriber/internal/config"
	"github.com/totegamma/concrnt-inscriber/internal/infra/database"
	"github.com/totegamma/concrnt-inscriber/internal/infra/gateway"
	"github.com/totegamma/concrnt-inscriber/internal/infra/repository"
	"github.com/totegamma/concrnt-inscriber/internal/present/rest"
	restmw "github.com/totegamma/concrnt-inscriber/internal/present/rest/middleware"
	"github.com/totegamma/concrnt-inscriber/internal/service"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the listen submission server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(runCtx, conf)
		},
	}
}

func serve(ctx context.Context, conf config.Config) error {
	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint, conf.NodeInfo.FQDN, version)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Error("failed to flush traces", slog.String("error", err.Error()))
			}
		}()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		return err
	}
	if err := database.MigratePostgres(db); err != nil {
		return err
	}

	apikeyRepo := repository.NewAPIKeyRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	playRepo := repository.NewPlayRepository(db)

	var searcher usecase.RecordingSearcher = gateway.NewMusicBrainzClient(gateway.MusicBrainzConfig{
		Endpoint:  conf.MusicBrainz.Endpoint,
		UserAgent: conf.MusicBrainz.UserAgent,
		Timeout:   conf.MusicBrainz.LookupTimeout,
		RateLimit: conf.MusicBrainz.RateLimit,
		Burst:     conf.MusicBrainz.Burst,
	})
	if conf.Server.MemcachedAddr != "" {
		mc, err := database.NewMemcached(conf.Server.MemcachedAddr)
		if err != nil {
			return err
		}
		searcher = gateway.NewCachedSearcher(searcher, mc, conf.MusicBrainz.CacheDuration)
	}

	var publisher usecase.SignalPublisher
	var realtime rest.Realtime
	if conf.Server.RedisAddr != "" {
		rdb, err := database.NewRedis(ctx, conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		signalService := service.NewSignalService(rdb)
		publisher = signalService
		realtime = signalService
	}

	cl := client.New(conf.MusicBrainz.UserAgent)
	identity := gateway.NewIdentityGateway(sessionRepo, cl)

	listenUC := usecase.NewListenUsecase(
		usecase.NewResolver(searcher),
		identity,
		playRepo,
		publisher,
		conf.Inscriber.Collection,
		conf.MusicBrainz.LookupTimeout,
	)
	apikeyUC := usecase.NewAPIKeyUsecase(apikeyRepo)
	playUC := usecase.NewPlayUsecase(playRepo)
	feedUC := usecase.NewFeedUsecase(gateway.NewTimelineGateway(cl))

	domainConf := conf.Domain()
	auth := restmw.NewAuthMiddleware(service.NewAuthService(domainConf), apikeyUC)
	handler := rest.NewHandler(domainConf, listenUC, apikeyUC, playUC, feedUC, realtime, auth)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}
	handler.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		slog.Info(
			"starting server",
			slog.String("addr", conf.Server.ListenAddr),
			slog.String("fqdn", conf.NodeInfo.FQDN),
			slog.String("version", version),
		)
		errCh <- e.Start(conf.Server.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
