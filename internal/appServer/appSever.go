// launching the server, engine, kafka
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/elastix-api/config"
	"github.com/ds124wfegd/elastix-api/internal/database"
	"github.com/ds124wfegd/elastix-api/internal/pkg/elastix"
	"github.com/ds124wfegd/elastix-api/internal/pkg/kafka"
	"github.com/ds124wfegd/elastix-api/internal/pkg/preview"
	"github.com/ds124wfegd/elastix-api/internal/pkg/storage"
	"github.com/ds124wfegd/elastix-api/internal/service"
	"github.com/ds124wfegd/elastix-api/internal/transport"
	"github.com/gin-gonic/gin"

	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout, // registrations can run for minutes, 0 means no limit
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Components holds everything both the HTTP server and the CLI run on.
type Components struct {
	Storage      storage.FileStorage
	Engine       elastix.Engine
	Producer     kafka.Producer
	Registration service.RegistrationService
	Warp         service.WarpService
	Preview      service.PreviewService
	Runs         service.RunService
}

func NewComponents(cfg *config.Config) *Components {
	fileStorage := storage.NewFileStorage(cfg.App.WorkDir)
	runRepo := database.NewRunRepository(fileStorage)
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Enabled, cfg.Kafka.Brokers, cfg.Kafka.Topic)
	engine := elastix.NewCLIEngine(cfg.Elastix.ElastixBin, cfg.Elastix.TransformixBin, cfg.Elastix.Threads)

	opts := service.Options{
		DefaultParameterMap: cfg.App.DefaultParameters,
		KeepScratch:         cfg.App.KeepScratch,
	}

	return &Components{
		Storage:      fileStorage,
		Engine:       engine,
		Producer:     kafkaProducer,
		Registration: service.NewRegistrationService(fileStorage, engine, runRepo, kafkaProducer, opts),
		Warp:         service.NewWarpService(fileStorage, engine, runRepo, kafkaProducer, opts),
		Preview:      service.NewPreviewService(fileStorage, preview.NewPreviewer(), runRepo, kafkaProducer),
		Runs:         service.NewRunService(runRepo, engine),
	}
}

func (c *Components) Close() {
	if err := c.Producer.Close(); err != nil {
		logrus.Errorf("error occured while closing kafka producer: %s", err.Error())
	}
}

// SetupLogging applies the JSON formatter and the configured level.
func SetupLogging(cfg *config.Config) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func NewServer(cfg *config.Config) {

	SetupLogging(cfg)

	components := NewComponents(cfg)
	defer components.Close()

	handler := transport.NewElastixHandler(
		components.Registration,
		components.Warp,
		components.Preview,
		components.Runs,
		components.Storage,
		cfg.App.DefaultOutput,
	)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logrus.WithFields(logrus.Fields{
		"work_dir": cfg.App.WorkDir,
		"engine":   components.Engine.Status(),
	}).Info("engine configured")

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(handler, cfg.Server.RequestTimeout)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

}
