package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/getsentry/simpleperf2firefox/internal/converter"
	"github.com/getsentry/simpleperf2firefox/internal/httputil"
	"github.com/getsentry/simpleperf2firefox/internal/storageutil"
)

type PostProfileResponse struct {
	ID          string `json:"profile_id"`
	Threads     int    `json:"threads"`
	Samples     int    `json:"samples"`
	LostSamples uint64 `json:"lost_samples"`
}

func rawStoragePath(id string) string {
	return "raw/" + id
}

func profileStoragePath(id string) string {
	return "profiles/" + id
}

func (env *environment) postProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := httputil.HubFromContext(ctx)

	s := sentry.StartSpan(ctx, "request.body")
	s.Description = "Read request body"
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, env.config.MaxCaptureSize))
	s.Finish()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	received := time.Now()
	id := uuid.New().String()
	hub.Scope().SetTag("profile_id", id)

	s = sentry.StartSpan(ctx, "gcs.write")
	s.Description = "Write raw capture"
	err = storageutil.WriteRaw(ctx, env.storage, rawStoragePath(id), body)
	s.Finish()
	if err != nil {
		env.writeError(w, hub, err)
		return
	}

	s = sentry.StartSpan(ctx, "processing")
	s.Description = "Convert capture"
	p, stats, err := converter.Convert(body)
	s.Finish()
	if err != nil {
		log.Warn().Err(err).Str("profile_id", id).Msg("capture can't be converted")
		env.writeError(w, hub, err)
		return
	}

	hub.Scope().SetContext("Profile metadata", map[string]interface{}{
		"product":         p.Meta.Product,
		"samples":         stats.Samples,
		"dropped_samples": stats.DroppedSamples,
		"threads":         len(p.Threads),
		"size":            len(body),
		"version":         stats.Version,
	})

	s = sentry.StartSpan(ctx, "gcs.write")
	s.Description = "Write profile"
	err = storageutil.CompressedWrite(ctx, env.storage, profileStoragePath(id), p)
	s.Finish()
	if err != nil {
		env.writeError(w, hub, err)
		return
	}

	s = sentry.StartSpan(ctx, "json.marshal")
	s.Description = "Marshal profile Kafka message"
	b, err := json.Marshal(buildConvertedProfileKafkaMessage(id, env.config.Environment, p, stats, received))
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s = sentry.StartSpan(ctx, "processing")
	s.Description = "Send profile to Kafka"
	err = env.profilingWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(id),
		Topic: env.config.ProfilesKafkaTopic,
		Value: b,
	})
	s.Finish()
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	b, err = json.Marshal(PostProfileResponse{
		ID:          id,
		Threads:     len(p.Threads),
		Samples:     stats.Samples - stats.DroppedSamples,
		LostSamples: stats.LostSamples,
	})
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(b)
}

func (env *environment) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := httputil.HubFromContext(ctx)
	ps := httprouter.ParamsFromContext(ctx)

	id := ps.ByName("profile_id")
	if _, err := uuid.Parse(id); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	hub.Scope().SetTag("profile_id", id)

	s := sentry.StartSpan(ctx, "gcs.read")
	s.Description = "Read profile"
	var profile json.RawMessage
	err := storageutil.UnmarshalCompressed(ctx, env.storage, profileStoragePath(id), &profile)
	s.Finish()
	if err != nil {
		env.writeError(w, hub, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(profile)
}

// writeError answers with the status code matching err. Transient and
// not found errors aren't reported.
func (env *environment) writeError(w http.ResponseWriter, hub *sentry.Hub, err error) {
	if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, storageutil.ErrObjectNotFound) {
		hub.CaptureException(err)
	}
	w.WriteHeader(httputil.StatusCodeForError(err))
}
