package provider

import (
	"testing"

	"meetbot_server/core/domain"
)

func TestBuildRegistrySkipsUnconfiguredPlatforms(t *testing.T) {
	registry := BuildRegistry(&FactoryConfig{}, nil)
	if len(registry) != 0 {
		t.Errorf("registry = %v, want empty with nothing configured", registry)
	}
	if _, ok := registry[domain.PlatformTeams]; ok {
		t.Error("teams must not be registered without a credential service")
	}
}

func TestBuildRegistryRegistersConfiguredPlatforms(t *testing.T) {
	registry := BuildRegistry(&FactoryConfig{
		Zoom: &ZoomConfig{ClientID: "id", ClientSecret: "secret", AccountID: "acc"},
	}, &stubCreds{token: "tok"})

	if _, ok := registry[domain.PlatformZoom]; !ok {
		t.Error("zoom missing from registry")
	}
	if _, ok := registry[domain.PlatformTeams]; !ok {
		t.Error("teams missing from registry despite credential service")
	}
	if _, ok := registry[domain.PlatformMeet]; ok {
		t.Error("meet registered without a credentials file")
	}
}
