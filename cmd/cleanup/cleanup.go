package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog/log"
	"gocloud.dev/blob"

	"github.com/getsentry/simpleperf2firefox/internal/logutil"
	"github.com/getsentry/simpleperf2firefox/internal/storageutil"
)

type Config struct {
	SentryDSN     string        `env:"SENTRY_DSN"`
	LogLevel      string        `env:"LOG_LEVEL" env-default:"info"`
	ProfileBucket string        `env:"PROFILES_BUCKET" env-default:"file:///var/lib/simpleperf-profiles"`
	RetentionDays int           `env:"SENTRY_EVENT_RETENTION_DAYS" env-default:"90"`
	Interval      time.Duration `env:"CLEANUP_INTERVAL" env-default:"24h"`
}

// Raw captures and converted profiles are stored under these prefixes.
var prefixes = []string{"raw/", "profiles/"}

// cleanup deletes the objects under prefix last modified before timeLimit and
// returns how many were deleted.
func cleanup(ctx context.Context, b *blob.Bucket, prefix string, timeLimit time.Time) (int, error) {
	var deleted int
	it := b.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return deleted, nil
		}
		if err != nil {
			return deleted, err
		}
		if obj.IsDir || !timeLimit.After(obj.ModTime) {
			continue
		}
		if err := b.Delete(ctx, obj.Key); err != nil {
			return deleted, err
		}
		deleted++
	}
}

func run(ctx context.Context, b *blob.Bucket, retention time.Duration) {
	timeLimit := time.Now().Add(-retention)
	for _, prefix := range prefixes {
		deleted, err := cleanup(ctx, b, prefix, timeLimit)
		if err != nil {
			sentry.CaptureException(err)
			log.Error().Err(err).Str("prefix", prefix).Msg("error cleaning up objects")
			continue
		}
		log.Info().Str("prefix", prefix).Int("deleted", deleted).Msg("objects cleaned up")
	}
}

func main() {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		log.Fatal().Err(err).Msg("error reading the configuration")
	}

	if err := logutil.ConfigureLogger(config.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("error setting up the logger")
	}

	err := sentry.Init(sentry.ClientOptions{Dsn: config.SentryDSN})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}
	defer sentry.Flush(5 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := storageutil.OpenBucket(ctx, config.ProfileBucket)
	if err != nil {
		sentry.CaptureException(err)
		log.Error().Err(err).Msg("can't open the bucket")
		return
	}
	defer b.Close()

	retention := 24 * time.Hour * time.Duration(config.RetentionDays)
	ticker := time.NewTicker(config.Interval)
	defer ticker.Stop()

	for {
		run(ctx, b, retention)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
