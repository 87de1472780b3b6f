package main

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/getsentry/simpleperf2firefox/internal/converter"
	"github.com/getsentry/simpleperf2firefox/internal/firefox"
)

type (
	KafkaWriter interface {
		WriteMessages(ctx context.Context, msgs ...kafka.Message) error
		Close() error
	}

	// ConvertedProfileKafkaMessage announces a converted profile to consumers
	// of the profiles topic.
	ConvertedProfileKafkaMessage struct {
		Environment    string  `json:"environment,omitempty"`
		ID             string  `json:"profile_id"`
		Product        string  `json:"product"`
		Received       int64   `json:"received"`
		RawStoragePath string  `json:"raw_storage_path"`
		StoragePath    string  `json:"storage_path"`
		Version        uint16  `json:"version"`
		Threads        int     `json:"threads"`
		Samples        int     `json:"samples"`
		DroppedSamples int     `json:"dropped_samples"`
		LostSamples    uint64  `json:"lost_samples"`
		DurationMS     float64 `json:"duration_ms"`
	}
)

func buildConvertedProfileKafkaMessage(
	id string,
	environment string,
	p firefox.Profile,
	s converter.Stats,
	received time.Time,
) ConvertedProfileKafkaMessage {
	return ConvertedProfileKafkaMessage{
		Environment:    environment,
		ID:             id,
		Product:        p.Meta.Product,
		Received:       received.Unix(),
		RawStoragePath: rawStoragePath(id),
		StoragePath:    profileStoragePath(id),
		Version:        s.Version,
		Threads:        len(p.Threads),
		Samples:        s.Samples - s.DroppedSamples,
		DroppedSamples: s.DroppedSamples,
		LostSamples:    s.LostSamples,
		DurationMS:     profileDuration(p),
	}
}

// profileDuration returns the time between the first and the last sample of
// the profile, in milliseconds.
func profileDuration(p firefox.Profile) float64 {
	var start, end float64
	first := true
	for _, t := range p.Threads {
		for _, ts := range t.Samples.Time {
			if first || ts < start {
				start = ts
			}
			if first || ts > end {
				end = ts
			}
			first = false
		}
	}
	return end - start
}
