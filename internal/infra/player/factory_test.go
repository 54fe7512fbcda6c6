package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osanai/playdeck/internal/domain/track"
	"github.com/osanai/playdeck/internal/infra/config"
)

func TestNewFactoryFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		backends []config.BackendConfig
		wantErr  bool
	}{
		{
			name: "local and stream",
			backends: []config.BackendConfig{
				{Type: "local", Settings: map[string]any{"root_dir": "/media"}},
				{Type: "stream", Settings: map[string]any{"user_agent": "playdeck/1.0"}},
			},
		},
		{
			name: "settings are optional",
			backends: []config.BackendConfig{
				{Type: "local"},
			},
		},
		{
			name:     "no backends",
			backends: nil,
			wantErr:  true,
		},
		{
			name: "unsupported type",
			backends: []config.BackendConfig{
				{Type: "chromecast"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFactoryFromConfig(config.PlayerConfig{Backends: tt.backends})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, f.backends, len(tt.backends))
		})
	}
}

func TestBackendNameFor(t *testing.T) {
	assert.Equal(t, "stream", backendNameFor("https://media.example.com/a.mp3"))
	assert.Equal(t, "stream", backendNameFor("http://radio.example.com/live"))
	assert.Equal(t, "local", backendNameFor("file:///media/book.mp3"))
	assert.Equal(t, "local", backendNameFor("/media/book.flac"))
	assert.Equal(t, "local", backendNameFor("relative/track.wav"))
}

func TestFactory_New_UnconfiguredBackend(t *testing.T) {
	f, err := NewFactoryFromConfig(config.PlayerConfig{
		Backends: []config.BackendConfig{{Type: "local"}},
	})
	require.NoError(t, err)

	_, err = f.New("https://media.example.com/a.mp3", track.Track{ID: "1", Type: track.MediaTypeRadio})
	assert.Error(t, err)
}
