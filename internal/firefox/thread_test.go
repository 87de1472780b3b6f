package firefox

import (
	"errors"
	"testing"

	"github.com/getsentry/simpleperf2firefox/internal/simpleperf"
	"github.com/getsentry/simpleperf2firefox/internal/testutil"
)

var testFiles = map[uint32]simpleperf.File{
	1: {ID: 1, Path: "/system/lib64/libc.so", Symbols: []string{"malloc", "free"}},
	2: {ID: 2, Path: "/data/app/com.example/base.apk", Symbols: []string{"main"}},
}

// stackNames returns the function names of a stack, from the root.
func stackNames(t *testing.T, thread Thread, stack int) []string {
	t.Helper()
	var names []string
	for _, frame := range thread.StackTable.Path(stack) {
		fn := thread.FrameTable.Func[frame]
		names = append(names, thread.StringArray[thread.FuncTable.Name[fn]])
	}
	return names
}

func TestNewThreadBuilder(t *testing.T) {
	tests := []struct {
		name         string
		thread       simpleperf.Thread
		isMainThread bool
		pid          string
	}{
		{
			name:         "main thread",
			thread:       simpleperf.Thread{ThreadID: 42, ProcessID: 42, ThreadName: "com.example"},
			isMainThread: true,
			pid:          "42",
		},
		{
			name:   "worker thread",
			thread: simpleperf.Thread{ThreadID: 43, ProcessID: 42, ThreadName: "RenderThread"},
			pid:    "42",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			thread := NewThreadBuilder(test.thread, DefaultCategories()).Thread()
			if thread.IsMainThread != test.isMainThread {
				t.Fatalf("expected isMainThread to be %v", test.isMainThread)
			}
			if thread.PID != test.pid {
				t.Fatalf("expected pid %s, got %s", test.pid, thread.PID)
			}
			if thread.TID != test.thread.ThreadID {
				t.Fatalf("expected tid %d, got %d", test.thread.ThreadID, thread.TID)
			}
			if thread.Name != test.thread.ThreadName {
				t.Fatalf("expected name %s, got %s", test.thread.ThreadName, thread.Name)
			}
			if thread.ProcessType != "default" {
				t.Fatalf("expected the default process type, got %s", thread.ProcessType)
			}
			if thread.Samples.Length != 0 || thread.Samples.Weight != nil {
				t.Fatal("expected an empty samples table without weights")
			}
		})
	}
}

func TestAddSample(t *testing.T) {
	b := NewThreadBuilder(simpleperf.Thread{ThreadID: 1, ProcessID: 1, ThreadName: "main"}, DefaultCategories())

	samples := []simpleperf.Sample{
		{
			Time:     1_500_000,
			ThreadID: 1,
			CallChain: []simpleperf.CallChainEntry{
				{VaddrInFile: 0x10, FileID: 1, SymbolID: 0},
				{VaddrInFile: 0x20, FileID: 2, SymbolID: 0},
			},
		},
		{
			Time:     2_000_000,
			ThreadID: 1,
			CallChain: []simpleperf.CallChainEntry{
				{VaddrInFile: 0x14, FileID: 1, SymbolID: 1},
				{VaddrInFile: 0x20, FileID: 2, SymbolID: 0},
			},
		},
		{
			Time:     3_000_001,
			ThreadID: 1,
			CallChain: []simpleperf.CallChainEntry{
				{VaddrInFile: 0x10, FileID: 1, SymbolID: 0},
				{VaddrInFile: 0x20, FileID: 2, SymbolID: 0},
			},
		},
	}
	for _, s := range samples {
		if err := b.AddSample(s, testFiles); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// The call chain is left untouched.
	if samples[0].CallChain[0].FileID != 1 {
		t.Fatal("the call chain was modified")
	}

	thread := b.Thread()
	if diff := testutil.Diff(thread.Samples.Time, []float64{1.5, 2, 3.000001}); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
	if thread.Samples.Stack[0] != thread.Samples.Stack[2] {
		t.Fatal("identical call chains should share a stack")
	}
	if thread.Samples.WeightType != WeightTypeSamples || thread.Samples.Weight != nil {
		t.Fatal("expected samples without weights")
	}

	wants := [][]string{
		{"main", "malloc"},
		{"main", "free"},
		{"main", "malloc"},
	}
	for i, want := range wants {
		got := stackNames(t, thread, int(thread.Samples.Stack[i]))
		if diff := testutil.Diff(got, want); diff != "" {
			t.Fatalf("Result mismatch for sample %d: got - want +\n%s", i, diff)
		}
	}

	// main, main>malloc, main>free
	if thread.StackTable.Length != 3 {
		t.Fatalf("expected 3 stacks, got %d", thread.StackTable.Length)
	}
	if thread.ResourceTable.Length != 2 {
		t.Fatalf("expected 2 resources, got %d", thread.ResourceTable.Length)
	}
	if thread.FuncTable.Length != 3 {
		t.Fatalf("expected 3 functions, got %d", thread.FuncTable.Length)
	}
}

func TestAddSampleWithoutCallChain(t *testing.T) {
	b := NewThreadBuilder(simpleperf.Thread{ThreadID: 1, ProcessID: 1}, DefaultCategories())
	if err := b.AddSample(simpleperf.Sample{Time: 1e6, ThreadID: 1}, testFiles); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	thread := b.Thread()
	if diff := testutil.Diff(thread.Samples.Stack, []NullableInt{Null}); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestAddSampleWithUnknownFile(t *testing.T) {
	b := NewThreadBuilder(simpleperf.Thread{ThreadID: 1, ProcessID: 1}, DefaultCategories())
	err := b.AddSample(simpleperf.Sample{
		ThreadID:  1,
		CallChain: []simpleperf.CallChainEntry{{FileID: 99, SymbolID: 0}},
	}, testFiles)
	if !errors.Is(err, ErrUnknownFile) {
		t.Fatalf("expected %v, got %v", ErrUnknownFile, err)
	}
}

func TestWeights(t *testing.T) {
	tests := []struct {
		name            string
		cpuClockEventID int
		wantWeightType  string
		wantWeight      []float64
	}{
		{
			name:            "no cpu-clock event",
			cpuClockEventID: NoEventType,
			wantWeightType:  WeightTypeSamples,
		},
		{
			name:            "cpu-clock is the first event type",
			cpuClockEventID: 0,
			wantWeightType:  WeightTypeTracingMS,
			wantWeight:      []float64{0.25, 0},
		},
		{
			name:            "cpu-clock is the second event type",
			cpuClockEventID: 1,
			wantWeightType:  WeightTypeTracingMS,
			wantWeight:      []float64{0, 1},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := NewThreadBuilder(simpleperf.Thread{ThreadID: 1, ProcessID: 1}, DefaultCategories())
			b.EnableWeights(test.cpuClockEventID)
			if b.WeightsEnabled() != (test.wantWeight != nil) {
				t.Fatalf("unexpected weights state %v", b.WeightsEnabled())
			}
			for _, s := range []simpleperf.Sample{
				{ThreadID: 1, EventTypeID: 0, EventCount: 250_000},
				{ThreadID: 1, EventTypeID: 1, EventCount: 1_000_000},
			} {
				if err := b.AddSample(s, testFiles); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			samples := b.Thread().Samples
			if samples.WeightType != test.wantWeightType {
				t.Fatalf("expected weight type %s, got %s", test.wantWeightType, samples.WeightType)
			}
			if diff := testutil.Diff(samples.Weight, test.wantWeight); diff != "" {
				t.Fatalf("Result mismatch: got - want +\n%s", diff)
			}
		})
	}
}

func TestFunctionName(t *testing.T) {
	f := testFiles[1]
	tests := []struct {
		name  string
		entry simpleperf.CallChainEntry
		want  string
	}{
		{
			name:  "symbolized",
			entry: simpleperf.CallChainEntry{FileID: 1, SymbolID: 1},
			want:  "free",
		},
		{
			name:  "no symbol",
			entry: simpleperf.CallChainEntry{FileID: 1, SymbolID: -1, VaddrInFile: 0x1f2e},
			want:  "libc.so+0x1f2e",
		},
		{
			name:  "symbol out of range",
			entry: simpleperf.CallChainEntry{FileID: 1, SymbolID: 5, VaddrInFile: 0xff},
			want:  "libc.so+0xff",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := functionName(test.entry, f); got != test.want {
				t.Fatalf("expected %s, got %s", test.want, got)
			}
		})
	}
}

func TestNanosecondsToMilliseconds(t *testing.T) {
	tests := []struct {
		ns   uint64
		want float64
	}{
		{0, 0},
		{1, 0.000001},
		{1_000_000, 1},
		{1_234_567_890, 1234.56789},
	}
	for _, test := range tests {
		if diff := testutil.Diff(nanosecondsToMilliseconds(test.ns), test.want); diff != "" {
			t.Fatalf("Result mismatch for %d: got - want +\n%s", test.ns, diff)
		}
	}
}
