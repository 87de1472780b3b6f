package simpleperf

import "fmt"

type (
	// Tag identifies which member of the record one-of a Record carries.
	Tag int

	// ExecutionType tells how the code at a call chain entry was executed.
	ExecutionType int32

	// Record is one decoded unit of a capture. The concrete type is one of
	// Sample, LostSituation, File, Thread, MetaInfo, ContextSwitch or Unknown.
	Record interface {
		Tag() Tag
	}

	CallChainEntry struct {
		VaddrInFile   uint64
		FileID        uint32
		SymbolID      int32
		ExecutionType ExecutionType
	}

	Sample struct {
		// Time is a monotonic clock value in nanoseconds.
		Time        uint64
		ThreadID    uint32
		EventTypeID uint32
		EventCount  uint64
		// CallChain is ordered innermost frame first.
		CallChain []CallChainEntry
	}

	LostSituation struct {
		SampleCount uint64
		LostCount   uint64
	}

	File struct {
		ID             uint32
		Path           string
		Symbols        []string
		MangledSymbols []string
	}

	Thread struct {
		ThreadID   uint32
		ProcessID  uint32
		ThreadName string
	}

	MetaInfo struct {
		EventTypes        []string
		AppPackageName    string
		AppType           string
		AndroidSDKVersion string
		AndroidBuildType  string
		TraceOffCPU       bool
	}

	ContextSwitch struct {
		SwitchOn bool
		Time     uint64
		ThreadID uint32
	}

	// Unknown is a record whose one-of member is not recognized, or which
	// carries no member at all (Field is 0 in that case).
	Unknown struct {
		Field int32
	}
)

const (
	TagUnknown Tag = iota
	TagSample
	TagLost
	TagFile
	TagThread
	TagMetaInfo
	TagContextSwitch
)

const (
	NativeMethod ExecutionType = iota
	InterpretedJVMMethod
	JITJVMMethod
	ARTMethod
)

func (Sample) Tag() Tag        { return TagSample }
func (LostSituation) Tag() Tag { return TagLost }
func (File) Tag() Tag          { return TagFile }
func (Thread) Tag() Tag        { return TagThread }
func (MetaInfo) Tag() Tag      { return TagMetaInfo }
func (ContextSwitch) Tag() Tag { return TagContextSwitch }
func (Unknown) Tag() Tag       { return TagUnknown }

func (t Tag) String() string {
	switch t {
	case TagSample:
		return "sample"
	case TagLost:
		return "lost"
	case TagFile:
		return "file"
	case TagThread:
		return "thread"
	case TagMetaInfo:
		return "metaInfo"
	case TagContextSwitch:
		return "contextSwitch"
	case TagUnknown:
		return "unknown"
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

func (t ExecutionType) String() string {
	switch t {
	case NativeMethod:
		return "NATIVE_METHOD"
	case InterpretedJVMMethod:
		return "INTERPRETED_JVM_METHOD"
	case JITJVMMethod:
		return "JIT_JVM_METHOD"
	case ARTMethod:
		return "ART_METHOD"
	}
	return fmt.Sprintf("ExecutionType(%d)", int32(t))
}

// HasSymbol reports whether the entry was resolved to a symbol of its file.
func (e CallChainEntry) HasSymbol() bool {
	return e.SymbolID >= 0
}
