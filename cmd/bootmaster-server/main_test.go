package main

import (
	"testing"

	"github.com/muurk/bootmaster/internal/config"
	"github.com/muurk/bootmaster/internal/locale"
)

func TestBuildConfig(t *testing.T) {
	t.Cleanup(func() {
		host, port, advertise, langFlag = "", 0, false, ""
	})

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8089
	cfg.Server.Advertise = true
	cfg.Language = "en"

	host, port, advertise = "0.0.0.0", 9000, false

	tests := []struct {
		name          string
		hostSet       bool
		portSet       bool
		advertiseSet  bool
		wantHost      string
		wantPort      int
		wantAdvertise bool
	}{
		{"config only", false, false, false, "127.0.0.1", 8089, true},
		{"flags win", true, true, true, "0.0.0.0", 9000, false},
		{"port only", false, true, false, "127.0.0.1", 9000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := buildConfig(cfg, tt.hostSet, tt.portSet, tt.advertiseSet)
			if c.Host != tt.wantHost || c.Port != tt.wantPort || c.Advertise != tt.wantAdvertise {
				t.Errorf("buildConfig() = %s:%d advertise=%v, want %s:%d advertise=%v",
					c.Host, c.Port, c.Advertise, tt.wantHost, tt.wantPort, tt.wantAdvertise)
			}
			if c.Workspace.Config != cfg {
				t.Error("sessions should use the loaded config")
			}
			if c.Workspace.Lang != locale.English {
				t.Errorf("Lang = %v, want en from the config", c.Workspace.Lang)
			}
		})
	}
}
