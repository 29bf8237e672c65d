package main

import (
	"testing"

	"reco-core/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestCheckConfig(t *testing.T) {
	assert.EqualError(t, checkConfig(&config.Config{}), "GEMINI_API_KEY is required to embed products")
	assert.NoError(t, checkConfig(&config.Config{Gemini: config.GeminiConfig{APIKey: "key"}}))
}
