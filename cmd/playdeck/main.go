// Package main provides the playdeck command line player.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osanai/playdeck/internal/app/resolver"
	"github.com/osanai/playdeck/internal/app/session"
	"github.com/osanai/playdeck/internal/domain/track"
	"github.com/osanai/playdeck/internal/infra/catalog"
	"github.com/osanai/playdeck/internal/infra/config"
	"github.com/osanai/playdeck/internal/infra/logger"
	playerinfra "github.com/osanai/playdeck/internal/infra/player"
	"github.com/osanai/playdeck/internal/infra/progress"
)

var (
	app        = kingpin.New("playdeck", "playdeck media player")
	configPath = app.Flag("config", "Path to config file").Default("config/playdeck.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	playCmd     = app.Command("play", "Play the given sources in order").Default()
	playSources = playCmd.Arg("source", "File path, stream URL or catalog:<item-id>").Required().Strings()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Logs go to stderr so the interactive prompt stays readable
	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg, *playSources); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the interactive player. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config, sources []string) error {
	catalogClient, err := catalog.New(catalog.Config{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: msDuration(cfg.Catalog.TimeoutMs),
	})
	if err != nil {
		return err
	}

	factory, err := playerinfra.NewFactoryFromConfig(cfg.Player)
	if err != nil {
		return err
	}

	store, err := progress.Open(cfg.Progress.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	sess := session.New(session.Config{
		ResolveTimeout:   msDuration(cfg.Playback.ResolveTimeoutMs),
		ProgressInterval: msDuration(cfg.Playback.ProgressIntervalMs),
	}, newSourceResolver(catalogClient), factory, store)
	defer sess.Close()

	subID := sess.Subscribe(func(snap session.Snapshot) {
		if snap.Playing {
			fmt.Printf("\r▶ %s (%d/%d)\n", snap.Title, snap.Cursor+1, snap.QueueLength)
		}
	})
	defer sess.Unsubscribe(subID)

	go logEvents(sess.Events())

	sess.SetQueue(tracksFromSources(sources), 0)
	if err := sess.PlayCurrent(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	lineCh := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lineCh <- strings.TrimSpace(scanner.Text())
		}
		close(lineCh)
	}()

	fmt.Println("commands: [p]ause, [r]esume, [n]ext, [b]ack, [s]top, [q]uit")
	for {
		select {
		case sig := <-sigCh:
			zlog.Info().Msgf("Received signal %v, shutting down", sig)
			sess.StopAll()
			return nil
		case line, ok := <-lineCh:
			if !ok {
				sess.StopAll()
				return nil
			}
			switch line {
			case "p":
				sess.Pause()
			case "r":
				sess.Resume()
			case "n":
				_ = sess.PlayNext()
			case "b":
				_ = sess.PlayPrevious()
			case "s":
				sess.StopAll()
			case "q":
				sess.StopAll()
				return nil
			case "":
			default:
				fmt.Printf("unknown command: %s\n", line)
			}
		}
	}
}

// newSourceResolver dispatches catalog:<id> references to the catalog
// service and passes file paths and direct URLs through untouched.
func newSourceResolver(client *catalog.Client) resolver.Resolver {
	return resolver.Func(func(ctx context.Context, trk track.Track) (string, error) {
		if ref, ok := strings.CutPrefix(trk.Source, "catalog:"); ok {
			stripped := trk
			stripped.Source = ref
			return client.Resolve(ctx, stripped)
		}
		return trk.Source, nil
	})
}

// tracksFromSources builds queueable tracks from command line arguments.
func tracksFromSources(sources []string) []track.Track {
	tracks := make([]track.Track, 0, len(sources))
	for _, src := range sources {
		mediaType := track.MediaTypeMusic
		title := filepath.Base(src)
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			mediaType = track.MediaTypeRadio
			title = src
		} else if ref, ok := strings.CutPrefix(src, "catalog:"); ok {
			mediaType = track.MediaTypeAudiobook
			title = ref
		}
		tracks = append(tracks, track.Track{
			ID:     src,
			Title:  title,
			Type:   mediaType,
			Source: src,
		})
	}
	return tracks
}

func logEvents(events <-chan session.Event) {
	for e := range events {
		switch e.Type {
		case session.EventResolveFailed:
			if e.Track != nil {
				fmt.Printf("could not resolve %s, use [n]/[b] to move on or retry\n", e.Track.Title)
			}
		case session.EventQueueEnded:
			fmt.Println("end of queue")
		default:
			zlog.Debug().Msgf("playback event: type=%s state=%s", e.Type, e.State)
		}
	}
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
