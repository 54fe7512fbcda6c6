package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Catalog: CatalogConfig{
					BaseURL:   "https://catalog.example.com",
					TimeoutMs: 10000,
				},
				Playback: PlaybackConfig{
					ResolveTimeoutMs:   15000,
					ProgressIntervalMs: 1000,
				},
				Player: PlayerConfig{
					Backends: []BackendConfig{
						{Type: "local"},
					},
				},
			},
			wantErr: false,
		},
		{
			name: "missing catalog base url",
			config: Config{
				Catalog: CatalogConfig{
					TimeoutMs: 10000,
				},
				Playback: PlaybackConfig{
					ResolveTimeoutMs:   15000,
					ProgressIntervalMs: 1000,
				},
				Player: PlayerConfig{
					Backends: []BackendConfig{
						{Type: "local"},
					},
				},
			},
			wantErr: true,
		},
		{
			name: "no player backends",
			config: Config{
				Catalog: CatalogConfig{
					BaseURL:   "https://catalog.example.com",
					TimeoutMs: 10000,
				},
				Playback: PlaybackConfig{
					ResolveTimeoutMs:   15000,
					ProgressIntervalMs: 1000,
				},
			},
			wantErr: true,
		},
		{
			name: "backend without type",
			config: Config{
				Catalog: CatalogConfig{
					BaseURL:   "https://catalog.example.com",
					TimeoutMs: 10000,
				},
				Playback: PlaybackConfig{
					ResolveTimeoutMs:   15000,
					ProgressIntervalMs: 1000,
				},
				Player: PlayerConfig{
					Backends: []BackendConfig{
						{Settings: map[string]any{"buffer_ms": 200}},
					},
				},
			},
			wantErr: true,
		},
		{
			name: "resolve timeout out of range",
			config: Config{
				Catalog: CatalogConfig{
					BaseURL:   "https://catalog.example.com",
					TimeoutMs: 10000,
				},
				Playback: PlaybackConfig{
					ResolveTimeoutMs:   10,
					ProgressIntervalMs: 1000,
				},
				Player: PlayerConfig{
					Backends: []BackendConfig{
						{Type: "local"},
					},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
catalog:
  base_url: https://catalog.example.com
player:
  backends:
    - type: local
    - type: stream
      settings:
        buffer_ms: 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Catalog.TimeoutMs)
	assert.Equal(t, 15000, cfg.Playback.ResolveTimeoutMs)
	assert.Equal(t, 1000, cfg.Playback.ProgressIntervalMs)
	assert.Equal(t, "progress.json", cfg.Progress.Path)
	require.Len(t, cfg.Player.Backends, 2)
	assert.Equal(t, "stream", cfg.Player.Backends[1].Type)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
catalog:
  base_url: https://catalog.example.com
player:
  backends:
    - type: local
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("PLAYDECK_CATALOG_URL", "https://other.example.com")
	t.Setenv("PLAYDECK_CATALOG_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://other.example.com", cfg.Catalog.BaseURL)
	assert.Equal(t, "secret", cfg.Catalog.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}
