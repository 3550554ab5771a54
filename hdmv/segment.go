package hdmv

import (
	"encoding/binary"

	"github.com/blu-disc/escore/diag"
	"github.com/pkg/errors"
)

// Segment types, spec section 6.2.
const (
	SegmentPDS = 0x14
	SegmentODS = 0x15
	SegmentPCS = 0x16
	SegmentWDS = 0x17
	SegmentICS = 0x18
	SegmentEND = 0x80
)

// knownSegmentTypes is used by DetectFraming to decide whether the stream
// opens with a bare segment header or an "MN" MNU wrapper.
var knownSegmentTypes = map[byte]bool{
	SegmentPDS: true,
	SegmentODS: true,
	SegmentPCS: true,
	SegmentWDS: true,
	SegmentICS: true,
	SegmentEND: true,
}

const mnuMagic = 0x4D4E // "MN"

// Segment is one decoded segment header plus its raw payload bytes, the
// Segment entity of spec section 3.2.
type Segment struct {
	Type             byte
	Length           int
	InputFileOffset  int64
	PTS, DTS         uint32
	HasTimestamps    bool
	Payload          []byte
}

// SequenceDescriptor is first_in_sequence/last_in_sequence, present on ODS
// and ICS segments; PDS/PCS/WDS/END are always singleton sequences.
type SequenceDescriptor struct {
	FirstInSequence bool
	LastInSequence  bool
}

// ReadSequenceDescriptor extracts the sequence descriptor bits that prefix
// an ODS or ICS fragment's payload (the top two bits of its first byte).
func ReadSequenceDescriptor(b byte) SequenceDescriptor {
	return SequenceDescriptor{
		FirstInSequence: b&0x80 != 0,
		LastInSequence:  b&0x40 != 0,
	}
}

// DetectFraming looks at the first bytes of the stream and decides whether
// it is raw (bare segment headers) or MNU-wrapped, per spec section 4.4.1.
// Raw streams carry no timestamps of their own, so the core falls back to
// force-retiming for them; MNU streams supply real PTS/DTS and are used
// as-is.
func DetectFraming(first []byte) (mnu bool, err error) {
	if len(first) < 1 {
		return false, errShortSegmentHeader
	}
	if knownSegmentTypes[first[0]] {
		return false, nil
	}
	if len(first) >= 2 && binary.BigEndian.Uint16(first) == mnuMagic {
		return true, nil
	}
	return false, errUnknownSegmentType
}

// ReadRawSegment reads one {segment_type, segment_length, payload} segment
// starting at buf[0], returning the segment and the number of bytes
// consumed.
func ReadRawSegment(buf []byte, offset int64) (*Segment, int, error) {
	if len(buf) < 3 {
		return nil, 0, diag.NewParserError(offset, "segment_header", errShortSegmentHeader)
	}
	typ := buf[0]
	if !knownSegmentTypes[typ] {
		return nil, 0, diag.NewParserError(offset, "segment_type", errUnknownSegmentType)
	}
	length := int(binary.BigEndian.Uint16(buf[1:3]))
	if len(buf) < 3+length {
		return nil, 0, diag.NewParserError(offset, "segment_length", errShortSegmentPayload)
	}
	s := &Segment{
		Type:            typ,
		Length:          length,
		InputFileOffset: offset,
		Payload:         buf[3 : 3+length],
	}
	return s, 3 + length, nil
}

// ReadMNUSegment reads one {"MN", pts, dts, segment_type, segment_length,
// payload} MNU-wrapped segment starting at buf[0].
func ReadMNUSegment(buf []byte, offset int64) (*Segment, int, error) {
	if len(buf) < 10 {
		return nil, 0, diag.NewParserError(offset, "mnu_header", errShortSegmentHeader)
	}
	if binary.BigEndian.Uint16(buf[0:2]) != mnuMagic {
		return nil, 0, diag.NewParserError(offset, "mnu_magic", errors.New("expected \"MN\" MNU magic"))
	}
	pts := binary.BigEndian.Uint32(buf[2:6])
	dts := binary.BigEndian.Uint32(buf[6:10])
	s, n, err := ReadRawSegment(buf[10:], offset+10)
	if err != nil {
		return nil, 0, err
	}
	s.PTS, s.DTS, s.HasTimestamps = pts, dts, true
	s.InputFileOffset = offset
	return s, 10 + n, nil
}
