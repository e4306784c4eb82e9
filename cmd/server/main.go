package main // Entry point package

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/theta-web/internal/config"
	"github.com/iliyamo/theta-web/internal/database"
	"github.com/iliyamo/theta-web/internal/handler"
	"github.com/iliyamo/theta-web/internal/logger"
	"github.com/iliyamo/theta-web/internal/metrics"
	"github.com/iliyamo/theta-web/internal/middleware"
	"github.com/iliyamo/theta-web/internal/queue"
	"github.com/iliyamo/theta-web/internal/repository"
	"github.com/iliyamo/theta-web/internal/router"
	"github.com/iliyamo/theta-web/internal/service"
	"github.com/iliyamo/theta-web/internal/storage"
	"github.com/iliyamo/theta-web/internal/utils"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment wins
	cfg := config.Load()

	log, err := logger.New(logger.Options{
		Environment: cfg.Env,
		Level:       cfg.Log.Level,
		Service:     "theta-web",
		File:        cfg.Log.File,
	})
	if err != nil {
		stdlog.Fatalf("init logger: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	issuer, err := utils.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return err
	}

	if err := database.RunMigrations(database.MigrationURL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)); err != nil {
		return err
	}
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	blobs, err := openBlobStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	cacheCfg := config.LoadCacheConfig()

	// Repositories share the one pool.
	admins := repository.NewAdminRepo(db)
	inquiries := repository.NewInquiryRepo(db)
	notifications := repository.NewNotificationRepo(db)
	projects := repository.NewProjectRepo(db)

	production := cfg.IsProduction()
	captcha := service.NewRecaptchaVerifier(cfg.Captcha, nil)
	if captcha == nil {
		log.Warn("RECAPTCHA_SECRET_KEY not set, CAPTCHA verification disabled")
	}
	notifier := service.NewInquiryNotifier(service.NewSMTPMailer(cfg.SMTP), cfg.SMTP, cfg.PublicBaseURL, log, rec)
	if !notifier.Enabled() {
		log.Warn("SMTP not configured, inquiry emails disabled")
	}

	accounts := service.NewAccountService(admins, issuer, cfg.BcryptCost, log, rec)
	intake := service.NewIntakeService(service.IntakeDeps{
		Store:      inquiries,
		Captcha:    captcha,
		Notifier:   notifier,
		Publisher:  queue.NewPublisher(cfg.RabbitMQURL, log),
		Production: production,
		Log:        log,
		Metrics:    rec,
	})
	files := service.NewAttachmentService(blobs, log, rec)
	inbox := service.NewInquiryService(inquiries, notifications, log)
	portfolio := service.NewProjectService(projects, log)

	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = echo.ExtractIPFromXFFHeader() // runs behind a reverse proxy
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.ReadTimeout = 60 * time.Second
	e.Server.WriteTimeout = 60 * time.Second
	e.Server.IdleTimeout = 120 * time.Second
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log, rec))

	authH := handler.NewAuthHandler(accounts, issuer, production)
	contactH := handler.NewContactHandler(intake, production)
	fileH := handler.NewAttachmentHandler(files, production)
	inquiryH := handler.NewInquiryHandler(inbox, production)
	projectH := handler.NewProjectHandler(portfolio, production)

	router.RegisterRoutes(e, db, metrics.Handler(reg))
	router.RegisterAuth(e, authH, limiter)
	router.RegisterPublic(e, contactH, fileH, projectH, limiter, middleware.NewResponseCache(cacheCfg, rdb, log))
	router.RegisterAdmin(e, issuer, inquiryH, projectH, fileH, middleware.PurgeCacheOnWrite(cacheCfg, rdb, log))

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", logger.String("addr", addr), logger.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", logger.Error(err))
	}
	// In-flight emails and events finish before the pool closes.
	intake.Wait()
	return nil
}

// openBlobStore connects to the S3 compatible store.  Without credentials
// uploads live in memory, which is only suitable for local development.
func openBlobStore(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (storage.BlobStore, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		log.Warn("S3 credentials not set, using in-memory blob store")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		return nil, err
	}
	bctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.EnsureBuckets(bctx); err != nil {
		return nil, err
	}
	return store, nil
}
