package simpleperf

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/getsentry/simpleperf2firefox/internal/errorutil"
	"github.com/getsentry/simpleperf2firefox/internal/testutil"
)

func readAll(t *testing.T, b []byte) []Record {
	t.Helper()
	r := NewReader(b)
	if _, err := r.ReadHeader(); err != nil {
		t.Fatalf("we should be able to read the header: %v", err)
	}
	var records []Record
	for {
		record, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records
		}
		if err != nil {
			t.Fatalf("we should be able to read a record: %v", err)
		}
		records = append(records, record)
	}
}

func TestReadHeader(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		version uint16
		err     error
	}{
		{
			name:    "valid header",
			input:   AppendHeader(nil, 1),
			version: 1,
		},
		{
			name:    "unvalidated version",
			input:   AppendHeader(nil, 0xbeef),
			version: 0xbeef,
		},
		{
			name:  "wrong magic",
			input: append([]byte("PERFSIMPLE"), 1, 0),
			err:   ErrInvalidMagic,
		},
		{
			name:  "too short for magic",
			input: []byte("SIMPLE"),
			err:   ErrInvalidMagic,
		},
		{
			name:  "missing version",
			input: []byte(Magic),
			err:   ErrInvalidMagic,
		},
		{
			name:  "empty",
			input: nil,
			err:   ErrInvalidMagic,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := NewReader(test.input)
			version, err := r.ReadHeader()
			if test.err != nil {
				if !errors.Is(err, test.err) {
					t.Fatalf("expected error %v, got %v", test.err, err)
				}
				if !errors.Is(err, errorutil.ErrDataIntegrity) {
					t.Fatalf("expected a data integrity error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if version != test.version {
				t.Fatalf("expected version %d, got %d", test.version, version)
			}
			if r.Version() != test.version {
				t.Fatalf("expected stored version %d, got %d", test.version, r.Version())
			}
		})
	}
}

func TestNextBeforeHeader(t *testing.T) {
	r := NewReader(AppendTerminator(AppendHeader(nil, 1)))
	if _, err := r.Next(); err == nil {
		t.Fatal("expected an error when reading records before the header")
	}
}

func TestReadRecords(t *testing.T) {
	want := []Record{
		MetaInfo{
			EventTypes:        []string{"cpu-cycles", "cpu-clock"},
			AppPackageName:    "io.sentry.sample",
			AppType:           "debuggable",
			AndroidSDKVersion: "33",
			AndroidBuildType:  "user",
			TraceOffCPU:       true,
		},
		Thread{ThreadID: 5, ProcessID: 5, ThreadName: "main"},
		File{
			ID:             1,
			Path:           "/system/lib64/libc.so",
			Symbols:        []string{"malloc", "free"},
			MangledSymbols: []string{"_malloc"},
		},
		Sample{
			Time:        18446744073709551000,
			ThreadID:    5,
			EventTypeID: 1,
			EventCount:  1_000_000,
			CallChain: []CallChainEntry{
				{VaddrInFile: 0x1234, FileID: 1, SymbolID: 0},
				{VaddrInFile: 0xdeadbeef, FileID: 1, SymbolID: -1, ExecutionType: JITJVMMethod},
			},
		},
		ContextSwitch{SwitchOn: true, Time: 42, ThreadID: 5},
		LostSituation{SampleCount: 1, LostCount: 3},
	}

	b := AppendHeader(nil, 1)
	for _, r := range want {
		b = AppendRecord(b, r)
	}
	b = AppendTerminator(b)

	if diff := testutil.Diff(readAll(t, b), want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestReadStopsAtTerminator(t *testing.T) {
	b := AppendHeader(nil, 1)
	b = AppendRecord(b, Thread{ThreadID: 1})
	b = AppendTerminator(b)
	// Anything after the terminator is never read.
	b = append(b, 0xff, 0xff, 0xff, 0xff)

	r := NewReader(b)
	if _, err := r.ReadHeader(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := r.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("expected io.EOF, got %v", err)
		}
	}
}

func TestReadInvalidRecords(t *testing.T) {
	header := AppendHeader(nil, 1)
	tests := []struct {
		name  string
		input []byte
	}{
		{
			name:  "missing terminator",
			input: AppendRecord(append([]byte{}, header...), Thread{ThreadID: 1}),
		},
		{
			name:  "length larger than capture",
			input: binary.LittleEndian.AppendUint32(append([]byte{}, header...), 64),
		},
		{
			name: "truncated varint",
			input: AppendTerminator(
				append(binary.LittleEndian.AppendUint32(append([]byte{}, header...), 2), 0x08, 0x80),
			),
		},
		{
			name: "truncated nested message",
			input: AppendTerminator(
				append(binary.LittleEndian.AppendUint32(append([]byte{}, header...), 3), 0x0a, 0x05, 0x08),
			),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := NewReader(test.input)
			if _, err := r.ReadHeader(); err != nil {
				t.Fatal(err)
			}
			var err error
			for err == nil {
				_, err = r.Next()
			}
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("expected %v, got %v", ErrInvalidRecord, err)
			}
			if !errors.Is(err, errorutil.ErrDataIntegrity) {
				t.Fatalf("expected a data integrity error, got %v", err)
			}
		})
	}
}

func TestUnknownRecords(t *testing.T) {
	b := AppendHeader(nil, 1)
	b = AppendRecord(b, Unknown{Field: 42})
	// A known member followed by an unknown field keeps the known member.
	m := append(MarshalRecord(Thread{ThreadID: 7}), MarshalRecord(Unknown{Field: 43})...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(m)))
	b = append(b, m...)
	b = AppendTerminator(b)

	want := []Record{
		Unknown{Field: 42},
		Thread{ThreadID: 7},
	}
	if diff := testutil.Diff(readAll(t, b), want); diff != "" {
		t.Fatalf("Result mismatch: got - want +\n%s", diff)
	}
}

func TestTags(t *testing.T) {
	tests := []struct {
		record Record
		tag    Tag
		name   string
	}{
		{Sample{}, TagSample, "sample"},
		{LostSituation{}, TagLost, "lost"},
		{File{}, TagFile, "file"},
		{Thread{}, TagThread, "thread"},
		{MetaInfo{}, TagMetaInfo, "metaInfo"},
		{ContextSwitch{}, TagContextSwitch, "contextSwitch"},
		{Unknown{}, TagUnknown, "unknown"},
	}
	for _, test := range tests {
		if test.record.Tag() != test.tag {
			t.Errorf("expected tag %v, got %v", test.tag, test.record.Tag())
		}
		if test.tag.String() != test.name {
			t.Errorf("expected name %q, got %q", test.name, test.tag.String())
		}
	}
}
