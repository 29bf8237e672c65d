package main

import (
	"testing"

	"reco-core/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRouterConfig(t *testing.T) {
	cfg := &config.Config{
		App:    config.AppConfig{Version: "1.4.0", Environment: "staging"},
		Server: config.ServerConfig{CORSOrigins: "https://shop.example", StaticDir: "./web"},
	}

	rc := routerConfig(cfg)

	assert.Equal(t, "1.4.0", rc.Version)
	assert.Equal(t, "staging", rc.Environment)
	assert.Equal(t, "https://shop.example", rc.CORSOrigins)
	assert.Equal(t, "./web", rc.StaticDir)
}
