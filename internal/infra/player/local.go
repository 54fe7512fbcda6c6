package player

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	appplayer "github.com/osanai/playdeck/internal/app/player"
	"github.com/osanai/playdeck/internal/domain/track"
)

// localSettings holds local backend settings (decoded via mapstructure).
type localSettings struct {
	RootDir string `mapstructure:"root_dir"`
}

// localBackend plays media from files on disk.
type localBackend struct {
	rootDir string
}

func (b *localBackend) Name() string {
	return "local"
}

// Open decodes the file behind url and returns a ready, not-yet-playing
// adapter. url is a file:// URL or a plain path, optionally relative to the
// configured root directory.
func (b *localBackend) Open(url string, _ track.Track) (appplayer.Adapter, error) {
	path := strings.TrimPrefix(url, "file://")
	if !filepath.IsAbs(path) && b.rootDir != "" {
		path = filepath.Join(b.rootDir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		_ = f.Close()
		return nil, errors.Newf("unsupported file format: %s", filepath.Ext(path))
	}
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	if err := initSpeaker(format); err != nil {
		_ = streamer.Close()
		_ = f.Close()
		return nil, errors.Wrap(err, "failed to initialize audio output")
	}

	return newAdapter(streamer, format, f, false), nil
}
