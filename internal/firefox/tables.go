package firefox

import "github.com/getsentry/simpleperf2firefox/internal/simpleperf"

type (
	funcKey struct {
		name     int
		resource int
	}

	frameKey struct {
		fn       int
		category int
	}

	stackKey struct {
		frame  int
		prefix NullableInt
	}
)

// ResourceTableBuilder deduplicates resources by the id of their file.
type ResourceTableBuilder struct {
	strings   *UniqueStringArray
	table     ResourceTable
	resources map[uint32]int
}

func NewResourceTableBuilder(strings *UniqueStringArray) *ResourceTableBuilder {
	return &ResourceTableBuilder{
		strings: strings,
		table: ResourceTable{
			Lib:  []NullableInt{},
			Name: []int{},
			Host: []NullableInt{},
			Type: []int{},
		},
		resources: make(map[uint32]int),
	}
}

func (b *ResourceTableBuilder) FindOrAddResource(f simpleperf.File) int {
	if i, ok := b.resources[f.ID]; ok {
		return i
	}
	i := b.table.Length
	b.resources[f.ID] = i
	b.table.Lib = append(b.table.Lib, Null)
	b.table.Name = append(b.table.Name, b.strings.IndexForString(f.Path))
	b.table.Host = append(b.table.Host, Null)
	b.table.Type = append(b.table.Type, ResourceTypeLibrary)
	b.table.Length++
	return i
}

func (b *ResourceTableBuilder) Table() ResourceTable {
	return b.table
}

// FuncTableBuilder deduplicates functions by name and resource.
type FuncTableBuilder struct {
	strings *UniqueStringArray
	table   FuncTable
	funcs   map[funcKey]int
}

func NewFuncTableBuilder(strings *UniqueStringArray) *FuncTableBuilder {
	return &FuncTableBuilder{
		strings: strings,
		table: FuncTable{
			Name:          []int{},
			IsJS:          []bool{},
			RelevantForJS: []bool{},
			Resource:      []int{},
			FileName:      []NullableInt{},
			LineNumber:    []NullableInt{},
			ColumnNumber:  []NullableInt{},
		},
		funcs: make(map[funcKey]int),
	}
}

func (b *FuncTableBuilder) FindOrAddFunc(name string, resource int) int {
	key := funcKey{name: b.strings.IndexForString(name), resource: resource}
	if i, ok := b.funcs[key]; ok {
		return i
	}
	i := b.table.Length
	b.funcs[key] = i
	b.table.Name = append(b.table.Name, key.name)
	b.table.IsJS = append(b.table.IsJS, false)
	b.table.RelevantForJS = append(b.table.RelevantForJS, false)
	b.table.Resource = append(b.table.Resource, resource)
	b.table.FileName = append(b.table.FileName, Null)
	b.table.LineNumber = append(b.table.LineNumber, Null)
	b.table.ColumnNumber = append(b.table.ColumnNumber, Null)
	b.table.Length++
	return i
}

func (b *FuncTableBuilder) Table() FuncTable {
	return b.table
}

// FrameTableBuilder deduplicates frames by function and category.
type FrameTableBuilder struct {
	table  FrameTable
	frames map[frameKey]int
}

func NewFrameTableBuilder() *FrameTableBuilder {
	return &FrameTableBuilder{
		table: FrameTable{
			Address:        []int{},
			InlineDepth:    []int{},
			Category:       []int{},
			Subcategory:    []int{},
			Func:           []int{},
			NativeSymbol:   []NullableInt{},
			InnerWindowID:  []NullableInt{},
			Implementation: []NullableInt{},
			Line:           []NullableInt{},
			Column:         []NullableInt{},
		},
		frames: make(map[frameKey]int),
	}
}

func (b *FrameTableBuilder) FindOrAddFrame(fn, category int) int {
	key := frameKey{fn: fn, category: category}
	if i, ok := b.frames[key]; ok {
		return i
	}
	i := b.table.Length
	b.frames[key] = i
	// The address is unknown.
	b.table.Address = append(b.table.Address, -1)
	b.table.InlineDepth = append(b.table.InlineDepth, 0)
	b.table.Category = append(b.table.Category, category)
	b.table.Subcategory = append(b.table.Subcategory, 0)
	b.table.Func = append(b.table.Func, fn)
	b.table.NativeSymbol = append(b.table.NativeSymbol, Null)
	b.table.InnerWindowID = append(b.table.InnerWindowID, Null)
	b.table.Implementation = append(b.table.Implementation, Null)
	b.table.Line = append(b.table.Line, Null)
	b.table.Column = append(b.table.Column, Null)
	b.table.Length++
	return i
}

func (b *FrameTableBuilder) Table() FrameTable {
	return b.table
}

// StackTableBuilder deduplicates stacks by frame and prefix, which makes the
// stack table a prefix tree shared by all the samples of a thread.
type StackTableBuilder struct {
	table  StackTable
	stacks map[stackKey]int
}

func NewStackTableBuilder() *StackTableBuilder {
	return &StackTableBuilder{
		table: StackTable{
			Frame:       []int{},
			Category:    []int{},
			Subcategory: []int{},
			Prefix:      []NullableInt{},
		},
		stacks: make(map[stackKey]int),
	}
}

// FindOrAddStack returns the stack made of frame called from prefix. A Null
// prefix makes frame a root.
func (b *StackTableBuilder) FindOrAddStack(frame int, prefix NullableInt, category int) int {
	if prefix.IsNull() {
		prefix = Null
	}
	key := stackKey{frame: frame, prefix: prefix}
	if i, ok := b.stacks[key]; ok {
		return i
	}
	i := b.table.Length
	b.stacks[key] = i
	b.table.Frame = append(b.table.Frame, frame)
	b.table.Category = append(b.table.Category, category)
	b.table.Subcategory = append(b.table.Subcategory, 0)
	b.table.Prefix = append(b.table.Prefix, prefix)
	b.table.Length++
	return i
}

func (b *StackTableBuilder) Table() StackTable {
	return b.table
}
