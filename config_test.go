package main

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("API_URL", "https://api.example.cl")
	t.Setenv("API_KEY", "secret")
	t.Setenv("CACHE_DIR", "")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_TIMEOUT", "30s")

	conf, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.cl", conf.ApiUrl)
	assert.Equal(t, "secret", conf.ApiKey)
	assert.Equal(t, "./db/", conf.CacheDir)
	assert.Equal(t, zerolog.DebugLevel, conf.LogLevel)
	assert.Equal(t, 30*time.Second, conf.HttpTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing url", env: map[string]string{"API_URL": "", "API_KEY": "k"}, want: "API_URL is not set"},
		{name: "missing key", env: map[string]string{"API_URL": "http://x", "API_KEY": ""}, want: "API_KEY is not set"},
		{name: "bad level", env: map[string]string{"API_URL": "http://x", "API_KEY": "k", "LOG_LEVEL": "loud"}, want: `invalid LOG_LEVEL "loud"`},
		{name: "bad timeout", env: map[string]string{"API_URL": "http://x", "API_KEY": "k", "HTTP_TIMEOUT": "soon"}, want: `invalid HTTP_TIMEOUT "soon"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", "")
			t.Setenv("HTTP_TIMEOUT", "")
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
