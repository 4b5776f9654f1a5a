package provider

import (
	"meetbot_server/core/domain"
	"meetbot_server/core/port/in"
	"meetbot_server/core/port/out"
	"meetbot_server/pkg/logger"
)

// FactoryConfig collects the per-platform settings the registry needs.
type FactoryConfig struct {
	Zoom *ZoomConfig
	Meet *MeetConfig
}

// BuildRegistry constructs one adapter per configured platform, keyed by the
// platform tag carried in each session. Unconfigured platforms are left out
// so the engine reports them as unavailable instead of failing mid-call.
func BuildRegistry(cfg *FactoryConfig, creds in.CredentialService) map[domain.Platform]out.MeetingProvider {
	registry := make(map[domain.Platform]out.MeetingProvider)

	if cfg.Zoom != nil && cfg.Zoom.ClientID != "" {
		registry[domain.PlatformZoom] = NewZoomAdapter(cfg.Zoom)
	} else {
		logger.Warn("Zoom adapter not configured")
	}

	if cfg.Meet != nil && cfg.Meet.CredentialsFile != "" {
		registry[domain.PlatformMeet] = NewMeetAdapter(cfg.Meet)
	} else {
		logger.Warn("Google Meet adapter not configured")
	}

	if creds != nil {
		registry[domain.PlatformTeams] = NewTeamsAdapter(creds)
	} else {
		logger.Warn("Teams adapter not configured")
	}

	return registry
}
