package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nidhogg/autoposter/internal/api"
	"github.com/nidhogg/autoposter/internal/caption"
	"github.com/nidhogg/autoposter/internal/chance"
	"github.com/nidhogg/autoposter/internal/config"
	"github.com/nidhogg/autoposter/internal/content"
	"github.com/nidhogg/autoposter/internal/imagesource"
	"github.com/nidhogg/autoposter/internal/memory"
	"github.com/nidhogg/autoposter/internal/persona"
	"github.com/nidhogg/autoposter/internal/provider"
	"github.com/nidhogg/autoposter/internal/publish"
	"github.com/nidhogg/autoposter/internal/scheduler"
	"github.com/nidhogg/autoposter/internal/tracker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/autoposter.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", cfgPath, err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	if cfg.Server.LogLevel == "production" {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting autoposter...", zap.String("config", cfgPath))

	rnd := chance.New()

	// Caption providers, first registered is primary
	router := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		p := provider.Build(provider.ProviderConfig{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey,
			Models: pc.Models, Extra: pc.Extra,
			Timeout: config.Seconds(cfg.Caption.TimeoutSeconds),
		}, logger)
		if p == nil {
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
			continue
		}
		router.Register(p)
	}
	var captioner caption.Captioner
	if router.Len() > 0 {
		captioner = caption.NewAICaptioner(router, caption.Config{
			Model:       cfg.Caption.Model,
			Timeout:     config.Seconds(cfg.Caption.TimeoutSeconds),
			MaxLength:   cfg.Caption.MaxLength,
			Temperature: cfg.Caption.Temperature,
			MaxFailures: cfg.Caption.MaxFailures,
			OpenFor:     config.Seconds(cfg.Caption.OpenSeconds),
		}, logger)
	} else {
		logger.Warn("no caption providers configured, using templates only")
	}

	images := imagesource.NewUnsplash(imagesource.UnsplashConfig{
		Endpoint:        cfg.Images.Endpoint,
		AccessKey:       cfg.Images.AccessKey,
		RequestsPerHour: cfg.Images.RequestsPerHour,
		Timeout:         config.Seconds(cfg.Images.TimeoutSeconds),
		MaxWait:         config.Seconds(cfg.Images.MaxWaitSeconds),
	}, logger)

	usedImages := tracker.New(cfg.Bot.TrackerCapacity, logger)
	mem := memory.NewStore(cfg.Bot.MemoryWindow, cfg.Bot.SimilarityThreshold, logger)
	pool := persona.NewPool(persona.Options{
		MinSize:         cfg.Bot.MinPoolSize,
		MaxGrowthPerRun: cfg.Bot.MaxGrowthPerRun,
	}, rnd, logger)
	pipeline := content.NewPipeline(images, usedImages, mem, captioner, rnd, logger)

	// Post events are optional
	var bus *publish.EventBus
	if cfg.Events.RedisURL != "" {
		bus, err = publish.NewEventBus(cfg.Events.RedisURL, cfg.Events.Stream, logger)
		if err != nil {
			logger.Warn("Redis unavailable, running without post events", zap.Error(err))
			bus = nil
		}
	}
	sink := publish.NewHTTPSink(cfg.Publish.BackendURL, config.Seconds(cfg.Publish.TimeoutSeconds), logger)
	publisher := publish.NewPublisher(sink, bus, logger)

	sched := scheduler.New(pool, pipeline, publisher, mem, usedImages,
		scheduler.NewTiming(nil, rnd), rnd,
		scheduler.Options{
			Interval:    time.Duration(cfg.Bot.IntervalMinutes) * time.Minute,
			PostsPerRun: cfg.Bot.PostsPerRun,
			BatchCap:    cfg.Bot.ManualBatchCap,
		}, logger)
	if cfg.Bot.Enabled {
		if err := sched.Start(); err != nil {
			logger.Fatal("start scheduler", zap.Error(err))
		}
	}

	handler := api.NewHandler(sched, pool, bus, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("autoposter listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down autoposter...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
		if err := sched.Shutdown(shutdownCtx); err != nil {
			logger.Warn("scheduler shutdown", zap.Error(err))
		}
		if bus != nil {
			bus.Close()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
