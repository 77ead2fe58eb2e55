package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"roadwatch/internal/auth"
	"roadwatch/internal/config"
	"roadwatch/internal/detection"
	"roadwatch/internal/geocoding"
	"roadwatch/internal/hub"
	"roadwatch/internal/logger"
	"roadwatch/internal/media"
	"roadwatch/internal/metrics"
	"roadwatch/internal/repository/sqlite"
	"roadwatch/internal/routes"
	"roadwatch/internal/vision"
)

type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	engine  vision.Engine
	hub     *hub.Hub
	server  *http.Server
}

func New() (*App, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	incidentRepo := sqlite.NewIncidentRepository(db)
	userRepo := sqlite.NewUserRepository(db)

	engine, err := vision.Load(cfg, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading vision engine: %w", err)
	}
	detector := vision.NewDetector(engine)

	m := metrics.New()
	h := hub.New(log)
	mediaStore := media.NewLocalStore(cfg.MediaDirectory, cfg.MediaBaseURL, cfg.MaxUploadSize)
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpirationMinutes, userRepo)
	geocoder := geocoding.New(cfg.GeocoderURL, cfg.GeocoderUserAgent)

	pipeline := detection.NewPipeline(
		detector,
		incidentRepo,
		h,
		mediaStore,
		log,
		m,
		cfg.InferenceWorkers,
		time.Duration(cfg.StoreTimeoutSeconds)*time.Second,
	)

	router := routes.Setup(routes.Deps{
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Auth:      authService,
		Pipeline:  pipeline,
		Hub:       h,
		Media:     mediaStore,
		Geocoder:  geocoder,
		Incidents: incidentRepo,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &App{
		config: cfg,
		logger: log,
		db:     db,
		engine: engine,
		hub:    h,
		server: server,
	}, nil
}

func (a *App) Run() error {
	go a.hub.Run()

	a.logger.Info("Road accident detection server listening on :%d", a.config.Port)
	a.logger.Info("Inference device: %s", a.engine.Device())

	err := a.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server, the hub and releases the model runtime.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)

	a.hub.Stop()

	if cerr := a.engine.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := a.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
