package firefox

import (
	"github.com/rs/zerolog/log"

	"github.com/getsentry/simpleperf2firefox/internal/simpleperf"
)

const (
	// DefaultProduct names profiles of captures without an app package name.
	DefaultProduct = "Android Profile"

	cpuClockEventType = "cpu-clock"
	importedFrom      = "Simpleperf"
)

// ProfileBuilder holds the threads and files of a capture and assembles the
// profile document.
type ProfileBuilder struct {
	categories Categories

	threads     []*ThreadBuilder
	threadsByID map[uint32]*ThreadBuilder
	files       map[uint32]simpleperf.File

	metaInfo        simpleperf.MetaInfo
	cpuClockEventID int

	sampleCount uint64
	lostCount   uint64
}

func NewProfileBuilder(categories Categories) *ProfileBuilder {
	return &ProfileBuilder{
		categories:      categories,
		threadsByID:     make(map[uint32]*ThreadBuilder),
		files:           make(map[uint32]simpleperf.File),
		cpuClockEventID: NoEventType,
	}
}

// RegisterFile makes f available to call chains. The first file registered
// with a given id is kept.
func (p *ProfileBuilder) RegisterFile(f simpleperf.File) {
	if _, exists := p.files[f.ID]; exists {
		return
	}
	p.files[f.ID] = f
}

// RegisterThread adds a thread to the profile. Threads keep their
// registration order in the document.
func (p *ProfileBuilder) RegisterThread(t simpleperf.Thread) {
	if _, exists := p.threadsByID[t.ThreadID]; exists {
		log.Warn().Uint32("thread_id", t.ThreadID).Msg("thread registered more than once")
		return
	}
	tb := NewThreadBuilder(t, p.categories)
	p.threads = append(p.threads, tb)
	p.threadsByID[t.ThreadID] = tb
}

func (p *ProfileBuilder) SetMetaInfo(m simpleperf.MetaInfo) {
	p.metaInfo = m
	p.cpuClockEventID = NoEventType
	for i, eventType := range m.EventTypes {
		if eventType == cpuClockEventType {
			p.cpuClockEventID = i
			break
		}
	}
}

func (p *ProfileBuilder) SetLossStatistics(l simpleperf.LostSituation) {
	p.sampleCount = l.SampleCount
	p.lostCount = l.LostCount
}

// CPUClockEventID returns the index of the cpu-clock event type, or
// NoEventType.
func (p *ProfileBuilder) CPUClockEventID() int {
	return p.cpuClockEventID
}

// ActivateWeighting enables weights on every registered thread if the
// capture has a cpu-clock event type.
func (p *ProfileBuilder) ActivateWeighting() {
	for _, t := range p.threads {
		t.EnableWeights(p.cpuClockEventID)
	}
}

// AddSample adds s to its thread. Samples of unknown threads are dropped and
// AddSample reports false.
func (p *ProfileBuilder) AddSample(s simpleperf.Sample) (bool, error) {
	t, ok := p.threadsByID[s.ThreadID]
	if !ok {
		log.Warn().Uint32("thread_id", s.ThreadID).Msg("thread not found for sample")
		return false, nil
	}
	return true, t.AddSample(s, p.files)
}

// Profile assembles the profile document.
func (p *ProfileBuilder) Profile() Profile {
	threads := make([]Thread, 0, len(p.threads))
	for _, t := range p.threads {
		threads = append(threads, t.Thread())
	}
	return Profile{
		Meta:    p.meta(),
		Libs:    []Lib{},
		Threads: threads,
	}
}

func (p *ProfileBuilder) meta() Meta {
	product := p.metaInfo.AppPackageName
	if product == "" {
		product = DefaultProduct
	}
	extra := []ExtraInfoSection{
		{
			Label: "Profile Information",
			Entries: []ExtraInfoEntry{
				{Label: "Sample Count", Format: "integer", Value: p.sampleCount},
				{Label: "Lost Samples", Format: "integer", Value: p.lostCount},
			},
		},
	}
	if device := p.deviceInformation(); len(device) > 0 {
		extra = append(extra, ExtraInfoSection{Label: "Device Information", Entries: device})
	}
	return Meta{
		Categories:                 p.categories.List(),
		Product:                    product,
		Version:                    GeckoProfileVersion,
		PreprocessedProfileVersion: ProcessedProfileVersion,
		SymbolicationNotSupported:  true,
		MarkerSchema:               []interface{}{},
		ImportedFrom:               importedFrom,
		UsesOnlyOneStackType:       true,
		DoesNotUseFrameImpl:        true,
		SourceCodeIsNotOnSearchfox: true,
		Extra:                      extra,
		KeepProfileThreadOrder:     true,
	}
}

func (p *ProfileBuilder) deviceInformation() []ExtraInfoEntry {
	var entries []ExtraInfoEntry
	for _, e := range []struct {
		label string
		value string
	}{
		{"App Type", p.metaInfo.AppType},
		{"Android SDK Version", p.metaInfo.AndroidSDKVersion},
		{"Android Build Type", p.metaInfo.AndroidBuildType},
	} {
		if e.value == "" {
			continue
		}
		entries = append(entries, ExtraInfoEntry{Label: e.label, Format: "string", Value: e.value})
	}
	if p.metaInfo.TraceOffCPU {
		entries = append(entries, ExtraInfoEntry{Label: "Off-CPU Tracing", Format: "string", Value: "enabled"})
	}
	return entries
}
