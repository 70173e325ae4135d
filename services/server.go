package services

import (
	"context"
	"time"

	"launchdeck/internal/config"
	"launchdeck/internal/env"
	"launchdeck/internal/logger"
	"launchdeck/internal/models"
)

type Server struct {
	cfg       *config.AppConfig
	apps      *AppManager
	startTime time.Time
}

/**
 * Create new server instance
 * @param {*config.AppConfig} cfg - Application configuration
 * @param {*AppManager} apps - Manager serving the API
 * @returns {*Server} Returns new server instance
 */
func NewServer(cfg *config.AppConfig, apps *AppManager) *Server {
	return &Server{
		cfg:       cfg,
		apps:      apps,
		startTime: time.Now(),
	}
}

func (s *Server) Apps() *AppManager {
	return s.apps
}

/**
 * Periodically reconcile every target believed to be running
 * @param {context.Context} ctx - Stops the loop when cancelled
 * @description
 * - Disabled when interval.monitoring <= 0
 * - Keeps the target gauges of /metrics current
 */
func (s *Server) StartMonitoring(ctx context.Context) {
	interval := s.cfg.Interval.Monitoring
	if interval <= 0 {
		logger.Info("Monitoring is disabled (interval <= 0)")
		return
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.apps.ReconcileAll(ctx); err != nil {
				logger.Errorf("Monitoring error: %v", err)
			}
			s.refreshGauges(ctx)
		}
	}
}

func (s *Server) refreshGauges(ctx context.Context) models.Metrics {
	m := models.Metrics{
		TotalRequests: GetTotalRequestCount(),
		ErrorRequests: GetTotalErrorCount(),
	}
	total, running, ports, err := s.apps.Stats(ctx)
	if err != nil {
		logger.Warnf("Failed to collect catalog stats: %v", err)
		return m
	}
	updateGauges(total, running, ports)
	m.TotalTargets = total
	m.RunningTargets = running
	m.PortsInUse = ports
	return m
}

/**
 * Get health check response for the server
 * @returns {models.HealthResponse} Version, uptime and catalog counters
 */
func (s *Server) GetHealthz(ctx context.Context) models.HealthResponse {
	return models.HealthResponse{
		Version:   env.Version,
		StartTime: s.startTime.Format(time.RFC3339),
		Status:    "UP",
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Metrics:   s.refreshGauges(ctx),
	}
}
