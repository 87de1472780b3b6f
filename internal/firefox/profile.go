package firefox

import (
	"strconv"
)

const (
	// ProcessedProfileVersion is the version of the processed profile format
	// the documents are written in.
	ProcessedProfileVersion = 50
	// GeckoProfileVersion is the version of the unprocessed format.
	GeckoProfileVersion = 30

	ResourceTypeLibrary = 1

	WeightTypeSamples   = "samples"
	WeightTypeTracingMS = "tracing-ms"
)

// NullableInt is an integer column value which is encoded as null when it is
// Null.
type NullableInt int

// Null marks the absence of a value in a NullableInt column.
const Null NullableInt = -1

func (n NullableInt) IsNull() bool {
	return n < 0
}

func (n NullableInt) MarshalJSON() ([]byte, error) {
	if n.IsNull() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(n), 10), nil
}

func (n *NullableInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Null
		return nil
	}
	v, err := strconv.Atoi(string(b))
	if err != nil {
		return err
	}
	*n = NullableInt(v)
	return nil
}

type (
	Profile struct {
		Meta    Meta     `json:"meta"`
		Libs    []Lib    `json:"libs"`
		Threads []Thread `json:"threads"`
	}

	Lib struct {
		Arch       string `json:"arch"`
		Name       string `json:"name"`
		Path       string `json:"path"`
		DebugName  string `json:"debugName"`
		DebugPath  string `json:"debugPath"`
		BreakpadID string `json:"breakpadId"`
	}

	Category struct {
		Name          string   `json:"name"`
		Color         string   `json:"color"`
		Subcategories []string `json:"subcategories"`
	}

	ExtraInfoSection struct {
		Label   string           `json:"label"`
		Entries []ExtraInfoEntry `json:"entries"`
	}

	ExtraInfoEntry struct {
		Label  string      `json:"label"`
		Format string      `json:"format"`
		Value  interface{} `json:"value"`
	}

	Meta struct {
		// Interval at which the threads are sampled, in milliseconds.
		Interval                   float64            `json:"interval"`
		StartTime                  float64            `json:"startTime"`
		ProcessType                int                `json:"processType"`
		Categories                 []Category         `json:"categories"`
		Product                    string             `json:"product"`
		Stackwalk                  int                `json:"stackwalk"`
		Version                    int                `json:"version"`
		PreprocessedProfileVersion int                `json:"preprocessedProfileVersion"`
		SymbolicationNotSupported  bool               `json:"symbolicationNotSupported"`
		MarkerSchema               []interface{}      `json:"markerSchema"`
		ImportedFrom               string             `json:"importedFrom"`
		UsesOnlyOneStackType       bool               `json:"usesOnlyOneStackType"`
		DoesNotUseFrameImpl        bool               `json:"doesNotUseFrameImplementation"`
		SourceCodeIsNotOnSearchfox bool               `json:"sourceCodeIsNotOnSearchfox"`
		Extra                      []ExtraInfoSection `json:"extra"`
		KeepProfileThreadOrder     bool               `json:"keepProfileThreadOrder"`
	}

	Thread struct {
		ProcessType         string            `json:"processType"`
		ProcessStartupTime  float64           `json:"processStartupTime"`
		ProcessShutdownTime *float64          `json:"processShutdownTime"`
		RegisterTime        float64           `json:"registerTime"`
		UnregisterTime      *float64          `json:"unregisterTime"`
		PausedRanges        []interface{}     `json:"pausedRanges"`
		Name                string            `json:"name"`
		IsMainThread        bool              `json:"isMainThread"`
		PID                 string            `json:"pid"`
		TID                 uint32            `json:"tid"`
		Samples             SamplesTable      `json:"samples"`
		Markers             RawMarkerTable    `json:"markers"`
		StackTable          StackTable        `json:"stackTable"`
		FrameTable          FrameTable        `json:"frameTable"`
		StringArray         []string          `json:"stringArray"`
		FuncTable           FuncTable         `json:"funcTable"`
		ResourceTable       ResourceTable     `json:"resourceTable"`
		NativeSymbols       NativeSymbolTable `json:"nativeSymbols"`
	}

	SamplesTable struct {
		Stack []NullableInt `json:"stack"`
		// Time is in milliseconds.
		Time []float64 `json:"time"`
		// Weight is nil unless weights were enabled for the thread.
		Weight     []float64 `json:"weight"`
		WeightType string    `json:"weightType"`
		Length     int       `json:"length"`
	}

	StackTable struct {
		Frame       []int         `json:"frame"`
		Category    []int         `json:"category"`
		Subcategory []int         `json:"subcategory"`
		Prefix      []NullableInt `json:"prefix"`
		Length      int           `json:"length"`
	}

	FrameTable struct {
		Address        []int         `json:"address"`
		InlineDepth    []int         `json:"inlineDepth"`
		Category       []int         `json:"category"`
		Subcategory    []int         `json:"subcategory"`
		Func           []int         `json:"func"`
		NativeSymbol   []NullableInt `json:"nativeSymbol"`
		InnerWindowID  []NullableInt `json:"innerWindowID"`
		Implementation []NullableInt `json:"implementation"`
		Line           []NullableInt `json:"line"`
		Column         []NullableInt `json:"column"`
		Length         int           `json:"length"`
	}

	FuncTable struct {
		Name          []int         `json:"name"`
		IsJS          []bool        `json:"isJS"`
		RelevantForJS []bool        `json:"relevantForJS"`
		Resource      []int         `json:"resource"`
		FileName      []NullableInt `json:"fileName"`
		LineNumber    []NullableInt `json:"lineNumber"`
		ColumnNumber  []NullableInt `json:"columnNumber"`
		Length        int           `json:"length"`
	}

	ResourceTable struct {
		Lib    []NullableInt `json:"lib"`
		Name   []int         `json:"name"`
		Host   []NullableInt `json:"host"`
		Type   []int         `json:"type"`
		Length int           `json:"length"`
	}

	RawMarkerTable struct {
		Data      []interface{} `json:"data"`
		Name      []int         `json:"name"`
		StartTime []float64     `json:"startTime"`
		EndTime   []float64     `json:"endTime"`
		Phase     []int         `json:"phase"`
		Category  []int         `json:"category"`
		Length    int           `json:"length"`
	}

	NativeSymbolTable struct {
		LibIndex     []int `json:"libIndex"`
		Address      []int `json:"address"`
		Name         []int `json:"name"`
		FunctionSize []int `json:"functionSize"`
		Length       int   `json:"length"`
	}
)

func newRawMarkerTable() RawMarkerTable {
	return RawMarkerTable{
		Data:      []interface{}{},
		Name:      []int{},
		StartTime: []float64{},
		EndTime:   []float64{},
		Phase:     []int{},
		Category:  []int{},
	}
}

func newNativeSymbolTable() NativeSymbolTable {
	return NativeSymbolTable{
		LibIndex:     []int{},
		Address:      []int{},
		Name:         []int{},
		FunctionSize: []int{},
	}
}

// Path returns the frames of a stack, from the root to the stack itself.
func (t StackTable) Path(stack int) []int {
	var frames []int
	for s := NullableInt(stack); !s.IsNull(); s = t.Prefix[s] {
		frames = append(frames, t.Frame[s])
	}
	for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
		frames[i], frames[j] = frames[j], frames[i]
	}
	return frames
}
