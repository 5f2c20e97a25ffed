package app

import (
	"github.com/CrashBytes/cloudflare-monitor/internal/events"
	"github.com/CrashBytes/cloudflare-monitor/internal/service"
	"github.com/CrashBytes/cloudflare-monitor/internal/storage"
	"github.com/CrashBytes/cloudflare-monitor/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Coordinator runs the background polling schedule
	Coordinator coordinator.Coordinator

	// Service serves cached reads
	Service service.MonitorService

	// Hub fans change events out to stream subscribers
	Hub *events.Hub

	// Store holds the polled records
	Store storage.Store
}
