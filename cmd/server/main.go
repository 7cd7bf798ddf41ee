package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"docstore/internal/audit"
	"docstore/internal/auth"
	"docstore/internal/config"
	"docstore/internal/domain"
	"docstore/internal/handler"
	"docstore/internal/logging"
	"docstore/internal/notify/noop"
	"docstore/internal/notify/ses"
	"docstore/internal/port"
	"docstore/internal/repository/memory"
	"docstore/internal/repository/postgres"
	"docstore/internal/router"
	"docstore/internal/schema"
	"docstore/internal/service"
	s3storage "docstore/internal/storage/s3"
	"docstore/internal/uow"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title docstore API
// @version 1.0
// @description Document metadata store with a transactional audit trail.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// stores bundles the persistence side chosen by db.driver.
type stores struct {
	backend  uow.Backend
	docs     port.DocumentRepository
	security port.SecurityRepository
	audits   port.AuditRepository
	ping     handler.Pinger
	close    func() error
}

func openStores(cfg *config.DBConfig, reg *schema.Registry, logger *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		store := memory.New(reg)
		return &stores{
			backend:  store,
			docs:     memory.NewDocumentRepo(store),
			security: memory.NewSecurityRepo(store),
			audits:   memory.NewAuditRepo(store),
			ping:     handler.PingFunc(store.Ping),
			close:    func() error { return nil },
		}, nil
	case "postgres", "":
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return &stores{
			backend:  postgres.NewBackend(db),
			docs:     postgres.NewDocumentRepo(db),
			security: postgres.NewSecurityRepo(db),
			audits:   postgres.NewAuditRepo(db),
			ping:     handler.PingFunc(db.PingContext),
			close:    db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

func newNotifier(cfg *config.AuditConfig, logger *slog.Logger) (audit.FailureNotifier, error) {
	switch cfg.NotifyProvider {
	case "ses":
		return ses.NewNotifier(cfg.NotifyRegion, cfg.FromAddress, cfg.ToAddresses)
	case "noop", "":
		return noop.NewNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown audit notify provider %q", cfg.NotifyProvider)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.SetDefault("docstore", version, cfg.Log.Format, cfg.Log.Level)
	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg, err := domain.NewRegistry()
	if err != nil {
		return fmt.Errorf("failed to build schema registry: %w", err)
	}
	policy, err := audit.NewPolicy(audit.PolicyConfig{
		AuditKind:          domain.KindAudits,
		ExcludedKinds:      cfg.Audit.ExcludedKinds,
		MetadataProperties: cfg.Audit.MetadataProperties,
	})
	if err != nil {
		return fmt.Errorf("invalid audit policy: %w", err)
	}
	if err := policy.Validate(reg); err != nil {
		return fmt.Errorf("audit policy does not match schema: %w", err)
	}

	st, err := openStores(&cfg.DB, reg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	notifier, err := newNotifier(&cfg.Audit, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize audit notifier: %w", err)
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	coord := audit.NewCoordinator(policy,
		audit.WithLogger(logger),
		audit.WithMetrics(audit.NewMetrics(metrics)),
		audit.WithNotifier(notifier),
	)

	blobs, err := s3storage.NewBlobStore(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	sessions := func() service.Session { return uow.New(reg, st.backend) }
	docSvc := service.NewDocumentService(st.docs, st.security, blobs, sessions, coord, service.DocumentServiceConfig{
		StorName:      cfg.Documents.StorName,
		LockDuration:  cfg.Documents.LockDuration,
		MaxFileSize:   cfg.S3.MaxFileSizeMB << 20,
		PresignExpiry: time.Duration(cfg.S3.PresignExpiry) * time.Second,
	}, logger)
	secSvc := service.NewSecurityService(st.security, sessions, coord, logger)
	auditSvc := service.NewAuditService(st.audits)

	engine := router.Setup(router.Deps{
		Logger:         logger,
		Validator:      auth.NewValidator(cfg.JWT.Secret, cfg.JWT.Issuer),
		Metrics:        metrics,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableSwagger:  cfg.Server.Environment != "production",
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": st.ping,
			"storage":  blobs,
		}),
		Documents: handler.NewDocumentHandler(docSvc),
		Security:  handler.NewSecurityHandler(secSvc),
		Audits:    handler.NewAuditHandler(auditSvc),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Port, "db_driver", cfg.DB.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
