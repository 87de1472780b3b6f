package simpleperf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/getsentry/simpleperf2firefox/internal/errorutil"
)

// Magic is the ASCII prefix of every capture produced by simpleperf report-sample.
const Magic = "SIMPLEPERF"

var (
	ErrInvalidMagic  = fmt.Errorf("%w: invalid simpleperf magic", errorutil.ErrDataIntegrity)
	ErrInvalidRecord = fmt.Errorf("%w: invalid simpleperf record", errorutil.ErrDataIntegrity)

	errHeaderNotRead = errors.New("simpleperf: header must be read before records")
)

// Reader reads the records of a capture held in memory. A capture is the
// magic, a little-endian uint16 version and a sequence of records, each
// prefixed by its little-endian uint32 length, terminated by a zero length.
type Reader struct {
	b          []byte
	off        int
	version    uint16
	headerRead bool
	done       bool
}

func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// ReadHeader verifies the magic and returns the capture version.
func (r *Reader) ReadHeader() (uint16, error) {
	if r.headerRead {
		return r.version, nil
	}
	if len(r.b) < len(Magic) || string(r.b[:len(Magic)]) != Magic {
		return 0, ErrInvalidMagic
	}
	r.off = len(Magic)
	if len(r.b)-r.off < 2 {
		return 0, fmt.Errorf("%w: truncated version", ErrInvalidMagic)
	}
	r.version = binary.LittleEndian.Uint16(r.b[r.off:])
	r.off += 2
	r.headerRead = true
	return r.version, nil
}

// Version returns the version read by ReadHeader.
func (r *Reader) Version() uint16 {
	return r.version
}

// Next decodes the next record. It returns io.EOF once the zero length
// terminator is read, and keeps returning io.EOF afterwards.
func (r *Reader) Next() (Record, error) {
	if !r.headerRead {
		return nil, errHeaderNotRead
	}
	if r.done {
		return nil, io.EOF
	}
	if len(r.b)-r.off < 4 {
		return nil, fmt.Errorf("%w: missing record length at offset %d", ErrInvalidRecord, r.off)
	}
	size := binary.LittleEndian.Uint32(r.b[r.off:])
	r.off += 4
	if size == 0 {
		r.done = true
		return nil, io.EOF
	}
	if uint64(size) > uint64(len(r.b)-r.off) {
		return nil, fmt.Errorf(
			"%w: record of %d bytes at offset %d exceeds capture size",
			ErrInvalidRecord,
			size,
			r.off,
		)
	}
	data := r.b[r.off : r.off+int(size)]
	r.off += int(size)
	record, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return record, nil
}
