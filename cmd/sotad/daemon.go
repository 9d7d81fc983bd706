package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sotachaser/sotad/pkg/cat"
	"github.com/sotachaser/sotad/pkg/config"
	"github.com/sotachaser/sotad/pkg/logging"
	"github.com/sotachaser/sotad/pkg/serial"
	"github.com/sotachaser/sotad/pkg/spots"
	"github.com/sotachaser/sotad/pkg/storage"
)

// Daemon ties the radio transport, the CAT driver, the spot poller and the
// web interface together.
type Daemon struct {
	config *config.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Core components
	transport *serial.Transport
	driver    *cat.Driver
	drain     *serial.Drain
	store     *storage.Store
	poller    *spots.Poller
	webServer *http.Server

	startTime time.Time
}

// NewDaemon creates a daemon instance from a validated configuration.
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	store, err := storage.NewStore(cfg.Storage.DatabasePath, cfg.Storage.MaxSpots)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	transport := serial.NewTransport(&serial.BugstPlatform{Device: cfg.Radio.Device})

	daemon := &Daemon{
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		transport: transport,
		driver:    cat.NewDriver(transport),
		drain:     serial.NewDrain(transport),
		store:     store,
		poller: spots.NewPoller(
			spots.NewClient(cfg.Spots.URL),
			store,
			time.Duration(cfg.Spots.RefreshInterval)*time.Second,
		),
		startTime: time.Now(),
	}

	if err := daemon.setupWebServer(); err != nil {
		cancel()
		store.Close()
		return nil, fmt.Errorf("failed to setup web server: %w", err)
	}

	return daemon, nil
}

// Start starts the spot poller and the web server. The serial connection is
// not opened here; the operator connects through the API when the radio is
// ready.
func (d *Daemon) Start() error {
	logging.Info("daemon", "Starting sotad daemon...")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.poller.Run(d.ctx)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		addr := fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port)
		logging.Infof("daemon", "Starting web server on %s", addr)
		if err := d.webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorf("daemon", "Web server error: %v", err)
		}
	}()

	return nil
}

// Stop stops the daemon gracefully.
func (d *Daemon) Stop() error {
	logging.Info("daemon", "Stopping daemon...")

	d.cancel()

	// Shutdown web server
	if d.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.webServer.Shutdown(ctx); err != nil {
			logging.Errorf("daemon", "Web server shutdown error: %v", err)
		}
	}

	// Stop the drain loop and release the radio
	d.drain.Stop()
	if err := d.transport.Disconnect(); err != nil {
		logging.Errorf("daemon", "Serial shutdown error: %v", err)
	}

	d.wg.Wait()

	if err := d.store.Close(); err != nil {
		logging.Errorf("daemon", "Store shutdown error: %v", err)
	}

	logging.Info("daemon", "Daemon stopped")
	return nil
}

// setupWebServer initializes the web server and routes
func (d *Daemon) setupWebServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Serve static files
	router.Static("/static", "./web/static")
	router.LoadHTMLGlob("web/templates/*")

	// Main web interface
	router.GET("/", d.handleHome)
	router.GET("/settings", d.handleSettings)

	// API routes
	api := router.Group("/api/v1")
	{
		api.GET("/status", d.handleGetStatus)
		api.GET("/spots", d.handleGetSpots)
		api.POST("/spots/refresh", d.handleRefreshSpots)

		api.POST("/radio/connect", d.handleConnect)
		api.POST("/radio/disconnect", d.handleDisconnect)
		api.POST("/radio/tune", d.handleTune)
		api.POST("/radio/test-tune", d.handleTestTune)
		api.GET("/radio/frequency", d.handleQueryFrequency)
		api.POST("/radio/raw", d.handleSendRaw)
		api.POST("/radio/drain/start", d.handleDrainStart)
		api.POST("/radio/drain/stop", d.handleDrainStop)
		api.GET("/radio/log", d.handleRadioLogWebSocket)

		api.GET("/prefs", d.handleGetPrefs)
		api.PUT("/prefs", d.handleSetPrefs)
	}

	addr := fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port)
	d.webServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return nil
}

// tuneRange returns the stored tune bounds, falling back to the configured
// defaults when no preference has been saved yet.
func (d *Daemon) tuneRange() (float64, float64) {
	min := d.store.GetFloat(storage.PrefMinFreqMHz, d.config.Tuning.MinFreqMHz)
	max := d.store.GetFloat(storage.PrefMaxFreqMHz, d.config.Tuning.MaxFreqMHz)
	return min, max
}
