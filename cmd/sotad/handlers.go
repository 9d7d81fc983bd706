package main

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/sotachaser/sotad/pkg/cat"
	"github.com/sotachaser/sotad/pkg/logging"
	"github.com/sotachaser/sotad/pkg/serial"
	"github.com/sotachaser/sotad/pkg/storage"
)

// handleHome serves the spot panel
func (d *Daemon) handleHome(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"callsign": d.config.Station.Callsign,
		"version":  Version,
	})
}

// handleSettings serves the settings page
func (d *Daemon) handleSettings(c *gin.Context) {
	minFreq, maxFreq := d.tuneRange()
	c.HTML(http.StatusOK, "settings.html", gin.H{
		"version":  Version,
		"min_freq": minFreq,
		"max_freq": maxFreq,
	})
}

// serialErrorStatus maps transport errors to HTTP status codes
func serialErrorStatus(err error) int {
	switch {
	case errors.Is(err, serial.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, serial.ErrUnavailable), errors.Is(err, serial.ErrPort):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleGetStatus returns daemon status
func (d *Daemon) handleGetStatus(c *gin.Context) {
	spotCount, err := d.store.SpotCount()
	if err != nil {
		logging.Warnf("web", "Failed to count spots: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "running",
		"version":       Version,
		"callsign":      d.config.Station.Callsign,
		"connected":     d.transport.Connected(),
		"drain_running": d.drain.Running(),
		"uptime":        time.Since(d.startTime).Round(time.Second).String(),
		"spot_count":    spotCount,
	})
}

// handleGetSpots returns the current spot snapshot
func (d *Daemon) handleGetSpots(c *gin.Context) {
	list := d.poller.Spots()
	c.JSON(http.StatusOK, gin.H{
		"spots":      list,
		"count":      len(list),
		"last_fetch": d.poller.LastFetch(),
	})
}

// handleRefreshSpots forces an immediate feed refresh
func (d *Daemon) handleRefreshSpots(c *gin.Context) {
	if err := d.poller.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "refreshed",
		"count":  len(d.poller.Spots()),
	})
}

// handleConnect opens the serial connection to the radio
func (d *Daemon) handleConnect(c *gin.Context) {
	var req struct {
		Baud int `json:"baud"`
	}
	// Body is optional; an empty body selects the configured baud rate
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	baud := req.Baud
	if baud <= 0 {
		baud = d.config.Radio.BaudRate
	}

	if err := d.transport.Connect(baud); err != nil {
		c.JSON(serialErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	logging.Infof("web", "Radio connected at %d baud", baud)
	c.JSON(http.StatusOK, gin.H{
		"status": "connected",
		"baud":   baud,
	})
}

// handleDisconnect closes the serial connection
func (d *Daemon) handleDisconnect(c *gin.Context) {
	d.drain.Stop()

	if err := d.transport.Disconnect(); err != nil {
		c.JSON(serialErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	logging.Info("web", "Radio disconnected")
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

// handleTune commands the radio to a spot's frequency and mode. Requests
// outside the stored tune range are rejected before anything reaches the
// radio.
func (d *Daemon) handleTune(c *gin.Context) {
	var req struct {
		FrequencyMHz float64 `json:"frequency_mhz" binding:"required"`
		Mode         string  `json:"mode"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	minFreq, maxFreq := d.tuneRange()
	if req.FrequencyMHz < minFreq || req.FrequencyMHz > maxFreq {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": gin.H{
				"message":      "tune blocked: frequency outside allowed range",
				"frequency":    req.FrequencyMHz,
				"min_freq_mhz": minFreq,
				"max_freq_mhz": maxFreq,
			},
		})
		logging.Warnf("web", "Tune blocked: %.3f MHz outside %.3f-%.3f MHz",
			req.FrequencyMHz, minFreq, maxFreq)
		return
	}

	freqHz := int64(math.Round(req.FrequencyMHz * 1e6))
	if err := d.driver.Tune(c.Request.Context(), freqHz, req.Mode); err != nil {
		c.JSON(serialErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	logging.Infof("web", "Tuned to %.3f MHz %s", req.FrequencyMHz, req.Mode)
	c.JSON(http.StatusOK, gin.H{
		"status":        "tuned",
		"frequency_mhz": req.FrequencyMHz,
		"mode":          req.Mode,
	})
}

// handleTestTune runs the canned 14.062 MHz CW tune
func (d *Daemon) handleTestTune(c *gin.Context) {
	if err := d.driver.TestTune(c.Request.Context()); err != nil {
		c.JSON(serialErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "tuned",
		"frequency_mhz": float64(cat.TestFrequencyHz) / 1e6,
		"mode":          "CW",
	})
}

// handleQueryFrequency asks the radio for VFO A and returns the next frame.
// With drain traffic interleaved the frame may be unrelated; the client is
// expected to treat it as informational.
func (d *Daemon) handleQueryFrequency(c *gin.Context) {
	frame, err := d.driver.QueryFrequency(c.Request.Context())
	if err != nil {
		c.JSON(serialErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"frame": frame})
}

// handleSendRaw injects a raw CAT command
func (d *Daemon) handleSendRaw(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := d.driver.SendRaw(c.Request.Context(), req.Command); err != nil {
		c.JSON(serialErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "sent",
		"command": req.Command,
	})
}

// handleDrainStart starts the background receive loop
func (d *Daemon) handleDrainStart(c *gin.Context) {
	if !d.transport.Connected() {
		c.JSON(http.StatusConflict, gin.H{"error": serial.ErrNotConnected.Error()})
		return
	}

	d.drain.Start()
	c.JSON(http.StatusOK, gin.H{"status": "draining"})
}

// handleDrainStop stops the background receive loop
func (d *Daemon) handleDrainStop(c *gin.Context) {
	d.drain.Stop()
	if err := d.transport.StopReader(); err != nil {
		logging.Warnf("web", "Reader release error: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

// handleGetPrefs returns the stored tune range
func (d *Daemon) handleGetPrefs(c *gin.Context) {
	minFreq, maxFreq := d.tuneRange()
	c.JSON(http.StatusOK, gin.H{
		"min_freq_mhz": minFreq,
		"max_freq_mhz": maxFreq,
	})
}

// handleSetPrefs stores the tune range
func (d *Daemon) handleSetPrefs(c *gin.Context) {
	var req struct {
		MinFreqMHz float64 `json:"min_freq_mhz" binding:"required"`
		MaxFreqMHz float64 `json:"max_freq_mhz" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MinFreqMHz >= req.MaxFreqMHz {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "min frequency must be below max frequency",
		})
		return
	}

	if err := d.store.SetFloat(storage.PrefMinFreqMHz, req.MinFreqMHz); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := d.store.SetFloat(storage.PrefMaxFreqMHz, req.MaxFreqMHz); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logging.Infof("web", "Tune range set to %.3f-%.3f MHz", req.MinFreqMHz, req.MaxFreqMHz)
	c.JSON(http.StatusOK, gin.H{
		"status":       "saved",
		"min_freq_mhz": req.MinFreqMHz,
		"max_freq_mhz": req.MaxFreqMHz,
	})
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// handleRadioLogWebSocket streams received CAT frames to the browser's live
// log panel.
func (d *Daemon) handleRadioLogWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warnf("web", "WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id, frames := d.transport.Subscribe()
	defer d.transport.Unsubscribe(id)

	logging.Debug("web", "Radio log client connected")

	// Drain client messages so pings and closes are processed
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			msg := map[string]interface{}{
				"type":  "frame",
				"frame": frame,
				"time":  time.Now().Format("15:04:05"),
			}
			if err := conn.WriteJSON(msg); err != nil {
				logging.Debugf("web", "WebSocket write error: %v", err)
				return
			}

		case <-clientGone:
			return

		case <-d.ctx.Done():
			return
		}
	}
}
