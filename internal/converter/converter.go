package converter

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/getsentry/simpleperf2firefox/internal/errorutil"
	"github.com/getsentry/simpleperf2firefox/internal/firefox"
	"github.com/getsentry/simpleperf2firefox/internal/simpleperf"
)

var (
	ErrSampleCountMismatch = fmt.Errorf("%w: sample count doesn't match the number of samples read", errorutil.ErrDataIntegrity)
	ErrAlreadyProcessed    = errors.New("converter: capture already processed")
)

type State int

const (
	StateInit State = iota
	StateHeaderRead
	StateStreaming
	StateReconciled
	StateAssembled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateHeaderRead:
		return "header_read"
	case StateStreaming:
		return "streaming"
	case StateReconciled:
		return "reconciled"
	case StateAssembled:
		return "assembled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type (
	// Stats describes the records of a processed capture.
	Stats struct {
		Version         uint16 `json:"version"`
		Samples         int    `json:"samples"`
		LostRecords     int    `json:"lost_records"`
		Files           int    `json:"files"`
		Threads         int    `json:"threads"`
		MetaInfos       int    `json:"meta_infos"`
		ContextSwitches int    `json:"context_switches"`
		UnknownRecords  int    `json:"unknown_records"`
		// DroppedSamples counts samples of threads never registered.
		DroppedSamples int `json:"dropped_samples"`
		// ReportedSamples and LostSamples are the counts of the lost record.
		ReportedSamples uint64 `json:"reported_samples"`
		LostSamples     uint64 `json:"lost_samples"`
	}

	Option func(*Converter)

	// Converter turns one simpleperf capture into a profile document. A
	// Converter processes its capture once.
	Converter struct {
		reader     *simpleperf.Reader
		categories firefox.Categories
		state      State
		stats      Stats

		profile *firefox.ProfileBuilder
		samples []simpleperf.Sample
	}
)

// WithCategories replaces the default categories of the document.
func WithCategories(c firefox.Categories) Option {
	return func(conv *Converter) {
		conv.categories = c
	}
}

func New(b []byte, opts ...Option) *Converter {
	c := &Converter{
		reader:     simpleperf.NewReader(b),
		categories: firefox.DefaultCategories(),
		state:      StateInit,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.profile = firefox.NewProfileBuilder(c.categories)
	return c
}

// Convert processes b with a new Converter.
func Convert(b []byte, opts ...Option) (firefox.Profile, Stats, error) {
	c := New(b, opts...)
	p, err := c.Process()
	return p, c.Stats(), err
}

func (c *Converter) State() State {
	return c.state
}

func (c *Converter) Stats() Stats {
	return c.stats
}

// Process reads the whole capture and assembles the document. No document is
// returned on error.
func (c *Converter) Process() (firefox.Profile, error) {
	if c.state != StateInit {
		return firefox.Profile{}, ErrAlreadyProcessed
	}
	p, err := c.process()
	if err != nil {
		c.state = StateFailed
		c.samples = nil
		return firefox.Profile{}, err
	}
	return p, nil
}

func (c *Converter) process() (firefox.Profile, error) {
	version, err := c.reader.ReadHeader()
	if err != nil {
		return firefox.Profile{}, err
	}
	c.stats.Version = version
	c.state = StateHeaderRead

	if err := c.stream(); err != nil {
		return firefox.Profile{}, err
	}
	if err := c.reconcile(); err != nil {
		return firefox.Profile{}, err
	}
	return c.assemble()
}

func (c *Converter) stream() error {
	c.state = StateStreaming
	for {
		r, err := c.reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		c.dispatch(r)
	}
}

// reconcile enables weights and checks the samples read against the count of
// the lost record. Samples may reference threads and files read after them,
// so nothing is folded before the stream is consumed.
func (c *Converter) reconcile() error {
	c.profile.ActivateWeighting()
	if uint64(len(c.samples)) != c.stats.ReportedSamples {
		return fmt.Errorf(
			"%w: %d reported, %d read",
			ErrSampleCountMismatch,
			c.stats.ReportedSamples,
			len(c.samples),
		)
	}
	c.state = StateReconciled
	return nil
}

func (c *Converter) assemble() (firefox.Profile, error) {
	for _, s := range c.samples {
		added, err := c.profile.AddSample(s)
		if err != nil {
			return firefox.Profile{}, err
		}
		if !added {
			c.stats.DroppedSamples++
		}
	}
	c.samples = nil

	p := c.profile.Profile()
	c.state = StateAssembled
	return p, nil
}

func (c *Converter) dispatch(r simpleperf.Record) {
	switch r := r.(type) {
	case simpleperf.Sample:
		c.stats.Samples++
		c.samples = append(c.samples, r)
	case simpleperf.LostSituation:
		c.stats.LostRecords++
		c.stats.ReportedSamples = r.SampleCount
		c.stats.LostSamples = r.LostCount
		c.profile.SetLossStatistics(r)
	case simpleperf.File:
		c.stats.Files++
		c.profile.RegisterFile(r)
	case simpleperf.Thread:
		c.stats.Threads++
		c.profile.RegisterThread(r)
	case simpleperf.MetaInfo:
		c.stats.MetaInfos++
		c.profile.SetMetaInfo(r)
	case simpleperf.ContextSwitch:
		c.stats.ContextSwitches++
	case simpleperf.Unknown:
		c.stats.UnknownRecords++
		log.Warn().Int32("field", r.Field).Msg("unknown record type")
	default:
		c.stats.UnknownRecords++
		log.Warn().Str("tag", r.Tag().String()).Msg("unknown record type")
	}
}
