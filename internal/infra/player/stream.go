package player

import (
	"net"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2/mp3"

	appplayer "github.com/osanai/playdeck/internal/app/player"
	"github.com/osanai/playdeck/internal/domain/track"
)

// streamSettings holds stream backend settings (decoded via mapstructure).
type streamSettings struct {
	UserAgent string `mapstructure:"user_agent"`
}

// streamBackend plays remote HTTP streams (radio, resolved catalog URLs).
type streamBackend struct {
	userAgent string
	// No overall client timeout: the response body is consumed for as long
	// as the stream plays. Connection setup is bounded via the transport so
	// an unreachable host fails instead of hanging Open.
	httpClient *http.Client
}

func newStreamBackend(s streamSettings) *streamBackend {
	return &streamBackend{
		userAgent: s.UserAgent,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
			},
		},
	}
}

func (b *streamBackend) Name() string {
	return "stream"
}

// Open connects to the stream URL and returns a ready, not-yet-playing
// adapter. Remote streams are treated as live: unknown duration, no seeking.
func (b *streamBackend) Open(url string, trk track.Track) (appplayer.Adapter, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to stream for %s", trk.ID)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Newf("stream returned status %d", resp.StatusCode)
	}

	streamer, format, err := mp3.Decode(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, errors.Wrapf(err, "failed to decode stream for %s", trk.ID)
	}

	if err := initSpeaker(format); err != nil {
		_ = streamer.Close()
		_ = resp.Body.Close()
		return nil, errors.Wrap(err, "failed to initialize audio output")
	}

	live := trk.Type == track.MediaTypeRadio || resp.ContentLength <= 0
	return newAdapter(streamer, format, resp.Body, live), nil
}
