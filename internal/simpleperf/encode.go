package simpleperf

import (
	"encoding/binary"

	"google.golang.org/protobuf/encoding/protowire"
)

// AppendHeader appends the magic and version of a capture to b.
func AppendHeader(b []byte, version uint16) []byte {
	b = append(b, Magic...)
	return binary.LittleEndian.AppendUint16(b, version)
}

// AppendRecord appends r to b, prefixed by its length.
func AppendRecord(b []byte, r Record) []byte {
	m := MarshalRecord(r)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(m)))
	return append(b, m...)
}

// AppendTerminator appends the zero length that ends a capture.
func AppendTerminator(b []byte) []byte {
	return binary.LittleEndian.AppendUint32(b, 0)
}

// MarshalRecord encodes r as a Record message.
func MarshalRecord(r Record) []byte {
	var b []byte
	switch r := r.(type) {
	case Sample:
		b = appendMessage(b, recordSample, marshalSample(r))
	case LostSituation:
		var m []byte
		m = appendVarint(m, lostSampleCount, r.SampleCount)
		m = appendVarint(m, lostLostCount, r.LostCount)
		b = appendMessage(b, recordLost, m)
	case File:
		var m []byte
		m = appendVarint(m, fileID, uint64(r.ID))
		m = appendString(m, filePath, r.Path)
		for _, s := range r.Symbols {
			m = appendString(m, fileSymbol, s)
		}
		for _, s := range r.MangledSymbols {
			m = appendString(m, fileMangledSymbol, s)
		}
		b = appendMessage(b, recordFile, m)
	case Thread:
		var m []byte
		m = appendVarint(m, threadThreadID, uint64(r.ThreadID))
		m = appendVarint(m, threadProcessID, uint64(r.ProcessID))
		m = appendString(m, threadThreadName, r.ThreadName)
		b = appendMessage(b, recordThread, m)
	case MetaInfo:
		var m []byte
		for _, s := range r.EventTypes {
			m = appendString(m, metaEventType, s)
		}
		m = appendString(m, metaAppPackageName, r.AppPackageName)
		if r.AppType != "" {
			m = appendString(m, metaAppType, r.AppType)
		}
		if r.AndroidSDKVersion != "" {
			m = appendString(m, metaAndroidSDKVersion, r.AndroidSDKVersion)
		}
		if r.AndroidBuildType != "" {
			m = appendString(m, metaAndroidBuildType, r.AndroidBuildType)
		}
		m = appendVarint(m, metaTraceOffCPU, protowire.EncodeBool(r.TraceOffCPU))
		b = appendMessage(b, recordMetaInfo, m)
	case ContextSwitch:
		var m []byte
		m = appendVarint(m, switchSwitchOn, protowire.EncodeBool(r.SwitchOn))
		m = appendVarint(m, switchTime, r.Time)
		m = appendVarint(m, switchThreadID, uint64(r.ThreadID))
		b = appendMessage(b, recordContextSwitch, m)
	case Unknown:
		if r.Field > 0 {
			b = appendMessage(b, protowire.Number(r.Field), nil)
		}
	}
	return b
}

func marshalSample(s Sample) []byte {
	var m []byte
	m = appendVarint(m, sampleTime, s.Time)
	m = appendVarint(m, sampleThreadID, uint64(s.ThreadID))
	for _, e := range s.CallChain {
		var em []byte
		em = appendVarint(em, entryVaddrInFile, e.VaddrInFile)
		em = appendVarint(em, entryFileID, uint64(e.FileID))
		em = appendVarint(em, entrySymbolID, uint64(int64(e.SymbolID)))
		em = appendVarint(em, entryExecutionType, uint64(int64(e.ExecutionType)))
		m = appendMessage(m, sampleCallChain, em)
	}
	m = appendVarint(m, sampleEventCount, s.EventCount)
	m = appendVarint(m, sampleEventTypeID, uint64(s.EventTypeID))
	return m
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}
