package player

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	appplayer "github.com/osanai/playdeck/internal/app/player"
	"github.com/osanai/playdeck/internal/domain/track"
	"github.com/osanai/playdeck/internal/infra/config"
)

// backend is a concrete engine capable of opening a source URL.
type backend interface {
	Open(url string, trk track.Track) (appplayer.Adapter, error)
	Name() string
}

// Factory selects a backend by URL scheme and constructs adapters.
// Implements the session's adapter factory contract.
type Factory struct {
	backends map[string]backend
}

// NewFactoryFromConfig creates a factory from configuration.
func NewFactoryFromConfig(cfg config.PlayerConfig) (*Factory, error) {
	if len(cfg.Backends) == 0 {
		return nil, errors.New("no player backends configured")
	}

	backends := make(map[string]backend)
	for i, bcfg := range cfg.Backends {
		var b backend
		zlog.Debug().Msgf("creating player backend: index=%d type=%s settings=%+v", i+1, bcfg.Type, bcfg.Settings)
		switch bcfg.Type {
		case "local":
			var s localSettings
			if err := mapstructure.Decode(bcfg.Settings, &s); err != nil {
				return nil, errors.Wrapf(err, "invalid local backend settings (index %d)", i)
			}
			b = &localBackend{rootDir: s.RootDir}

		case "stream":
			var s streamSettings
			if err := mapstructure.Decode(bcfg.Settings, &s); err != nil {
				return nil, errors.Wrapf(err, "invalid stream backend settings (index %d)", i)
			}
			b = newStreamBackend(s)

		default:
			return nil, errors.Newf("unsupported backend type: %s (backend index %d)", bcfg.Type, i)
		}

		backends[b.Name()] = b
		zlog.Info().Msgf("registered player backend: index=%d type=%s", i+1, b.Name())
	}

	return &Factory{backends: backends}, nil
}

// New constructs a not-yet-playing adapter for the resolved URL.
func (f *Factory) New(url string, trk track.Track) (appplayer.Adapter, error) {
	name := backendNameFor(url)
	b, ok := f.backends[name]
	if !ok {
		return nil, errors.Newf("no %s backend configured for url %s", name, url)
	}
	return b.Open(url, trk)
}

// backendNameFor maps a resolved URL to the backend that can play it.
func backendNameFor(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return "stream"
	}
	return "local"
}
