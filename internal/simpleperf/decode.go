package simpleperf

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the report_sample.proto messages.
const (
	recordSample        protowire.Number = 1
	recordLost          protowire.Number = 2
	recordFile          protowire.Number = 3
	recordThread        protowire.Number = 4
	recordMetaInfo      protowire.Number = 5
	recordContextSwitch protowire.Number = 6

	sampleTime        protowire.Number = 1
	sampleThreadID    protowire.Number = 2
	sampleCallChain   protowire.Number = 3
	sampleEventCount  protowire.Number = 4
	sampleEventTypeID protowire.Number = 5

	entryVaddrInFile   protowire.Number = 1
	entryFileID        protowire.Number = 2
	entrySymbolID      protowire.Number = 3
	entryExecutionType protowire.Number = 4

	lostSampleCount protowire.Number = 1
	lostLostCount   protowire.Number = 2

	fileID            protowire.Number = 1
	filePath          protowire.Number = 2
	fileSymbol        protowire.Number = 3
	fileMangledSymbol protowire.Number = 4

	threadThreadID   protowire.Number = 1
	threadProcessID  protowire.Number = 2
	threadThreadName protowire.Number = 3

	metaEventType         protowire.Number = 1
	metaAppPackageName    protowire.Number = 2
	metaAppType           protowire.Number = 3
	metaAndroidSDKVersion protowire.Number = 4
	metaAndroidBuildType  protowire.Number = 5
	metaTraceOffCPU       protowire.Number = 6

	switchSwitchOn protowire.Number = 1
	switchTime     protowire.Number = 2
	switchThreadID protowire.Number = 3
)

// fieldFunc consumes the value of one field and returns the number of bytes
// consumed. Returning 0 lets the caller skip the field as unknown.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeMessage(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func consumeVarint(typ protowire.Type, b []byte, v *uint64) int {
	if typ != protowire.VarintType {
		return 0
	}
	x, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*v = x
	}
	return n
}

func consumeString(typ protowire.Type, b []byte, s *string) int {
	if typ != protowire.BytesType {
		return 0
	}
	x, n := protowire.ConsumeBytes(b)
	if n >= 0 {
		*s = string(x)
	}
	return n
}

func consumeMessageField(typ protowire.Type, b []byte, decode func([]byte) error) (int, error) {
	if typ != protowire.BytesType {
		return 0, nil
	}
	x, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	return n, decode(x)
}

// decodeRecord decodes one Record message. The last one-of member present
// wins, as in any protobuf decoder.
func decodeRecord(b []byte) (Record, error) {
	var r Record = Unknown{}
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case recordSample:
			return consumeMessageField(typ, b, func(b []byte) error {
				s, err := decodeSample(b)
				r = s
				return err
			})
		case recordLost:
			return consumeMessageField(typ, b, func(b []byte) error {
				l, err := decodeLostSituation(b)
				r = l
				return err
			})
		case recordFile:
			return consumeMessageField(typ, b, func(b []byte) error {
				f, err := decodeFile(b)
				r = f
				return err
			})
		case recordThread:
			return consumeMessageField(typ, b, func(b []byte) error {
				t, err := decodeThread(b)
				r = t
				return err
			})
		case recordMetaInfo:
			return consumeMessageField(typ, b, func(b []byte) error {
				m, err := decodeMetaInfo(b)
				r = m
				return err
			})
		case recordContextSwitch:
			return consumeMessageField(typ, b, func(b []byte) error {
				c, err := decodeContextSwitch(b)
				r = c
				return err
			})
		}
		if _, ok := r.(Unknown); ok && typ == protowire.BytesType {
			r = Unknown{Field: int32(num)}
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func decodeSample(b []byte) (Sample, error) {
	var s Sample
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var v uint64
		switch num {
		case sampleTime:
			return consumeVarint(typ, b, &s.Time), nil
		case sampleThreadID:
			n := consumeVarint(typ, b, &v)
			s.ThreadID = uint32(v)
			return n, nil
		case sampleCallChain:
			return consumeMessageField(typ, b, func(b []byte) error {
				e, err := decodeCallChainEntry(b)
				if err != nil {
					return err
				}
				s.CallChain = append(s.CallChain, e)
				return nil
			})
		case sampleEventCount:
			return consumeVarint(typ, b, &s.EventCount), nil
		case sampleEventTypeID:
			n := consumeVarint(typ, b, &v)
			s.EventTypeID = uint32(v)
			return n, nil
		}
		return 0, nil
	})
	return s, err
}

func decodeCallChainEntry(b []byte) (CallChainEntry, error) {
	var e CallChainEntry
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var v uint64
		switch num {
		case entryVaddrInFile:
			return consumeVarint(typ, b, &e.VaddrInFile), nil
		case entryFileID:
			n := consumeVarint(typ, b, &v)
			e.FileID = uint32(v)
			return n, nil
		case entrySymbolID:
			// int32 values are sign extended to 64 bits on the wire.
			n := consumeVarint(typ, b, &v)
			e.SymbolID = int32(v)
			return n, nil
		case entryExecutionType:
			n := consumeVarint(typ, b, &v)
			e.ExecutionType = ExecutionType(int32(v))
			return n, nil
		}
		return 0, nil
	})
	return e, err
}

func decodeLostSituation(b []byte) (LostSituation, error) {
	var l LostSituation
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case lostSampleCount:
			return consumeVarint(typ, b, &l.SampleCount), nil
		case lostLostCount:
			return consumeVarint(typ, b, &l.LostCount), nil
		}
		return 0, nil
	})
	return l, err
}

func decodeFile(b []byte) (File, error) {
	var f File
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var v uint64
		var s string
		switch num {
		case fileID:
			n := consumeVarint(typ, b, &v)
			f.ID = uint32(v)
			return n, nil
		case filePath:
			return consumeString(typ, b, &f.Path), nil
		case fileSymbol:
			n := consumeString(typ, b, &s)
			if n > 0 {
				f.Symbols = append(f.Symbols, s)
			}
			return n, nil
		case fileMangledSymbol:
			n := consumeString(typ, b, &s)
			if n > 0 {
				f.MangledSymbols = append(f.MangledSymbols, s)
			}
			return n, nil
		}
		return 0, nil
	})
	return f, err
}

func decodeThread(b []byte) (Thread, error) {
	var t Thread
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var v uint64
		switch num {
		case threadThreadID:
			n := consumeVarint(typ, b, &v)
			t.ThreadID = uint32(v)
			return n, nil
		case threadProcessID:
			n := consumeVarint(typ, b, &v)
			t.ProcessID = uint32(v)
			return n, nil
		case threadThreadName:
			return consumeString(typ, b, &t.ThreadName), nil
		}
		return 0, nil
	})
	return t, err
}

func decodeMetaInfo(b []byte) (MetaInfo, error) {
	var m MetaInfo
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var v uint64
		var s string
		switch num {
		case metaEventType:
			n := consumeString(typ, b, &s)
			if n > 0 {
				m.EventTypes = append(m.EventTypes, s)
			}
			return n, nil
		case metaAppPackageName:
			return consumeString(typ, b, &m.AppPackageName), nil
		case metaAppType:
			return consumeString(typ, b, &m.AppType), nil
		case metaAndroidSDKVersion:
			return consumeString(typ, b, &m.AndroidSDKVersion), nil
		case metaAndroidBuildType:
			return consumeString(typ, b, &m.AndroidBuildType), nil
		case metaTraceOffCPU:
			n := consumeVarint(typ, b, &v)
			m.TraceOffCPU = protowire.DecodeBool(v)
			return n, nil
		}
		return 0, nil
	})
	return m, err
}

func decodeContextSwitch(b []byte) (ContextSwitch, error) {
	var c ContextSwitch
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var v uint64
		switch num {
		case switchSwitchOn:
			n := consumeVarint(typ, b, &v)
			c.SwitchOn = protowire.DecodeBool(v)
			return n, nil
		case switchTime:
			return consumeVarint(typ, b, &c.Time), nil
		case switchThreadID:
			n := consumeVarint(typ, b, &v)
			c.ThreadID = uint32(v)
			return n, nil
		}
		return 0, nil
	})
	return c, err
}
