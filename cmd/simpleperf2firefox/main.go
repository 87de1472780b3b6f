package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/simpleperf2firefox/internal/converter"
	"github.com/getsentry/simpleperf2firefox/internal/logutil"
)

type Config struct {
	Environment string `env:"SENTRY_ENVIRONMENT" env-default:"development" env-description:"Sentry environment"`
	SentryDSN   string `env:"SENTRY_DSN" env-description:"Sentry DSN, errors are only logged when empty"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"warn" env-description:"minimum level of logged events"`
	Workers     int    `env:"WORKERS" env-default:"8" env-description:"captures converted concurrently in batch mode"`
}

var release string

// convertFile converts the capture at src and writes the document to dst.
func convertFile(src, dst string) (converter.Stats, error) {
	b, err := os.ReadFile(src)
	if err != nil {
		return converter.Stats{}, err
	}
	p, stats, err := converter.Convert(b)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", src, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return stats, err
	}
	w := bufio.NewWriter(f)
	err = json.NewEncoder(w).Encode(p)
	if err != nil {
		_ = f.Close()
		return stats, err
	}
	err = w.Flush()
	if err != nil {
		_ = f.Close()
		return stats, err
	}
	return stats, f.Close()
}

// outputPath returns the path of the document of capture in destination.
func outputPath(destination, capture string) string {
	name := filepath.Base(capture)
	return filepath.Join(destination, strings.TrimSuffix(name, filepath.Ext(name))+".json")
}

func convert(destination string, captures chan string, errorsChan chan error, wg *sync.WaitGroup) {
	defer wg.Done()

	for capture := range captures {
		stats, err := convertFile(capture, outputPath(destination, capture))
		if err != nil {
			errorsChan <- err
			continue
		}
		log.Info().
			Str("capture", capture).
			Int("samples", stats.Samples).
			Int("dropped_samples", stats.DroppedSamples).
			Msg("capture converted")
	}
}

// convertBatch converts every capture listed in the file at list, one path
// per line, into destination. It returns the number of failed conversions.
func convertBatch(list, destination string, workers int) (int, error) {
	file, err := os.Open(list)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	if err := os.MkdirAll(destination, 0o755); err != nil {
		return 0, err
	}

	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup

	captures := make(chan string)
	errorsChan := make(chan error)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go convert(destination, captures, errorsChan, &wg)
	}

	var failures int
	done := make(chan struct{})
	go func() {
		for err := range errorsChan {
			failures++
			sentry.CaptureException(err)
			log.Error().Err(err).Msg("capture can't be converted")
		}
		close(done)
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		capture := strings.TrimSpace(scanner.Text())
		if capture == "" {
			continue
		}
		captures <- capture
	}

	close(captures)
	wg.Wait()
	close(errorsChan)
	<-done

	return failures, scanner.Err()
}

func main() {
	var config Config
	batch := flag.Bool("batch", false, "convert the captures listed in a file into a directory")
	flag.Usage = cleanenv.FUsage(
		flag.CommandLine.Output(),
		&config,
		nil,
		func() {
			fmt.Fprintln(flag.CommandLine.Output(), "./simpleperf2firefox <capture> <output.json>")
			fmt.Fprintln(flag.CommandLine.Output(), "./simpleperf2firefox -batch <file of capture paths> <destination directory>")
			flag.PrintDefaults()
		},
	)
	flag.Parse()

	if err := cleanenv.ReadEnv(&config); err != nil {
		log.Fatal().Err(err).Msg("error reading the configuration")
	}
	if err := logutil.ConfigureLogger(config.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("error setting up the logger")
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(2)
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         config.SentryDSN,
		Environment: config.Environment,
		Release:     release,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}
	defer sentry.Flush(5 * time.Second)

	if *batch {
		failures, err := convertBatch(args[0], args[1], config.Workers)
		if err != nil {
			sentry.CaptureException(err)
			log.Error().Err(err).Msg("error reading the capture list")
		}
		if err != nil || failures > 0 {
			sentry.Flush(5 * time.Second)
			os.Exit(1)
		}
		return
	}

	if _, err := convertFile(args[0], args[1]); err != nil {
		sentry.CaptureException(err)
		sentry.Flush(5 * time.Second)
		log.Fatal().Err(err).Msg("capture can't be converted")
	}
}
