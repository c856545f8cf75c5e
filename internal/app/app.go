package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/templui/babybook/internal/config"
	"github.com/templui/babybook/internal/db"
	"github.com/templui/babybook/internal/markdown"
	"github.com/templui/babybook/internal/media"
	"github.com/templui/babybook/internal/metrics"
	"github.com/templui/babybook/internal/repository"
	"github.com/templui/babybook/internal/service"
	"github.com/templui/babybook/internal/storage"
)

type App struct {
	Cfg       *config.Config
	DB        *sqlx.DB
	Storage   storage.Storage
	Processor *media.Processor
	Registry  *prometheus.Registry
	Metrics   *metrics.Collector

	AuthService      *service.AuthService
	BabyService      *service.BabyService
	GrowthService    *service.GrowthService
	MilestoneService *service.MilestoneService
	MediaService     *service.MediaService
	UploadService    *service.UploadService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Media tools: in-process decoding first, ffmpeg for what Go cannot read (HEIC)
	ffmpeg := media.NewFFmpeg(cfg.FFmpegPath)
	processor := media.NewProcessor(
		ffmpeg,
		media.NewFFprobe(cfg.FFprobePath),
		media.ConverterChain{media.Decoder{}, ffmpeg},
		media.ProcessorConfig{
			TempDir:       cfg.MediaTempDir,
			MaxConcurrent: cfg.MediaMaxJobs,
			JobTimeout:    cfg.MediaJobTimeout,
		},
	)

	return Assemble(cfg, database, fileStorage, processor), nil
}

// Assemble wires repositories, services and metrics around already opened infrastructure.
func Assemble(cfg *config.Config, database *sqlx.DB, store storage.Storage, processor *media.Processor) *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)
	processor.SetObserver(collector)

	// Repositories
	babyRepository := repository.NewBabyRepository(database)
	growthRepository := repository.NewGrowthRecordRepository(database)
	milestoneRepository := repository.NewMilestoneRepository(database)
	mediaRepository := repository.NewMediaItemRepository(database)
	orphanRepository := repository.NewOrphanedBlobRepository(database)

	// Services
	mediaService := service.NewMediaService(mediaRepository, orphanRepository, store)
	mediaService.SetRecorder(collector)
	uploadService := service.NewUploadService(store, processor, cfg.MediaMaxUploadBytes)
	uploadService.SetRecorder(collector)

	return &App{
		Cfg:       cfg,
		DB:        database,
		Storage:   store,
		Processor: processor,
		Registry:  registry,
		Metrics:   collector,

		AuthService:      service.NewAuthService(cfg.AccessPassword, cfg.AuthTokenTTL, cfg.IsProduction()),
		BabyService:      service.NewBabyService(babyRepository, mediaRepository, mediaService),
		GrowthService:    service.NewGrowthService(growthRepository, babyRepository),
		MilestoneService: service.NewMilestoneService(milestoneRepository, babyRepository, markdown.NewParser()),
		MediaService:     mediaService,
		UploadService:    uploadService,
	}
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
