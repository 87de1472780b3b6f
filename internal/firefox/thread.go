package firefox

import (
	"fmt"
	"path"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/getsentry/simpleperf2firefox/internal/errorutil"
	"github.com/getsentry/simpleperf2firefox/internal/simpleperf"
)

var ErrUnknownFile = fmt.Errorf("%w: call chain references an unknown file", errorutil.ErrDataIntegrity)

// NoEventType disables weights when passed to EnableWeights.
const NoEventType = -1

// ThreadBuilder accumulates the samples of one thread into its tables. Each
// thread has its own string array.
type ThreadBuilder struct {
	name         string
	isMainThread bool
	tid          uint32
	pid          uint32

	categories Categories
	strings    *UniqueStringArray
	resources  *ResourceTableBuilder
	funcs      *FuncTableBuilder
	frames     *FrameTableBuilder
	stacks     *StackTableBuilder
	samples    SamplesTable

	cpuClockEventID int
}

func NewThreadBuilder(t simpleperf.Thread, categories Categories) *ThreadBuilder {
	strings := NewUniqueStringArray()
	return &ThreadBuilder{
		name:         t.ThreadName,
		isMainThread: t.ThreadID == t.ProcessID,
		tid:          t.ThreadID,
		pid:          t.ProcessID,
		categories:   categories,
		strings:      strings,
		resources:    NewResourceTableBuilder(strings),
		funcs:        NewFuncTableBuilder(strings),
		frames:       NewFrameTableBuilder(),
		stacks:       NewStackTableBuilder(),
		samples: SamplesTable{
			Stack:      []NullableInt{},
			Time:       []float64{},
			WeightType: WeightTypeSamples,
		},
		cpuClockEventID: NoEventType,
	}
}

// EnableWeights adds a weight column to the samples. Samples of the
// cpuClockEventID event type weigh their event count in milliseconds, others
// weigh 0. It must be called before any sample is added and does nothing
// when cpuClockEventID is negative.
func (t *ThreadBuilder) EnableWeights(cpuClockEventID int) {
	if cpuClockEventID < 0 {
		return
	}
	t.cpuClockEventID = cpuClockEventID
	t.samples.Weight = []float64{}
	t.samples.WeightType = WeightTypeTracingMS
}

func (t *ThreadBuilder) WeightsEnabled() bool {
	return t.samples.Weight != nil
}

// AddSample folds the call chain of s into the stack table and appends a row
// to the samples table.
func (t *ThreadBuilder) AddSample(s simpleperf.Sample, files map[uint32]simpleperf.File) error {
	stack := Null
	// The call chain is innermost first and stacks are built from the root.
	for i := len(s.CallChain) - 1; i >= 0; i-- {
		entry := s.CallChain[i]
		f, ok := files[entry.FileID]
		if !ok {
			return fmt.Errorf("%w: file id %d", ErrUnknownFile, entry.FileID)
		}
		resource := t.resources.FindOrAddResource(f)
		fn := t.funcs.FindOrAddFunc(functionName(entry, f), resource)
		category := t.categories.ForExecutionType(entry.ExecutionType)
		frame := t.frames.FindOrAddFrame(fn, category)
		stack = NullableInt(t.stacks.FindOrAddStack(frame, stack, category))
	}

	t.samples.Stack = append(t.samples.Stack, stack)
	t.samples.Time = append(t.samples.Time, nanosecondsToMilliseconds(s.Time))
	if t.samples.Weight != nil {
		var weight float64
		if int64(s.EventTypeID) == int64(t.cpuClockEventID) {
			weight = nanosecondsToMilliseconds(s.EventCount)
		}
		t.samples.Weight = append(t.samples.Weight, weight)
	}
	t.samples.Length++
	return nil
}

func functionName(entry simpleperf.CallChainEntry, f simpleperf.File) string {
	if entry.HasSymbol() {
		if int(entry.SymbolID) < len(f.Symbols) {
			return f.Symbols[entry.SymbolID]
		}
		log.Warn().
			Int32("symbol_id", entry.SymbolID).
			Uint32("file_id", f.ID).
			Str("path", f.Path).
			Msg("symbol id is out of range")
	}
	return path.Base(f.Path) + "+0x" + strconv.FormatUint(entry.VaddrInFile, 16)
}

// nanosecondsToMilliseconds keeps the full 64 bits of ns until the division.
func nanosecondsToMilliseconds(ns uint64) float64 {
	ms := ns / 1e6
	rem := ns % 1e6
	return float64(ms) + float64(rem)/1e6
}

func (t *ThreadBuilder) ThreadID() uint32 {
	return t.tid
}

// Thread returns the document of the thread.
func (t *ThreadBuilder) Thread() Thread {
	return Thread{
		ProcessType:   "default",
		PausedRanges:  []interface{}{},
		Name:          t.name,
		IsMainThread:  t.isMainThread,
		PID:           strconv.FormatUint(uint64(t.pid), 10),
		TID:           t.tid,
		Samples:       t.samples,
		Markers:       newRawMarkerTable(),
		StackTable:    t.stacks.Table(),
		FrameTable:    t.frames.Table(),
		StringArray:   t.strings.Strings(),
		FuncTable:     t.funcs.Table(),
		ResourceTable: t.resources.Table(),
		NativeSymbols: newNativeSymbolTable(),
	}
}
