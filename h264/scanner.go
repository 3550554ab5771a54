package h264

import (
	"bufio"
	"io"

	"github.com/blu-disc/escore/diag"
)

// RawNALUnit is one Annex-B NAL unit as delivered by the Scanner: its byte
// offset in the source (the first byte after the start code) and its raw
// payload, still emulation-prevention-encoded.
type RawNALUnit struct {
	Offset  int64
	Payload []byte
}

// Scanner splits an Annex-B byte stream into NAL units at 0x000001 /
// 0x00000001 start codes, section 6.1. The four-byte form is only legal
// ahead of SPS, PPS, or the first NAL of an access unit; the scanner itself
// does not enforce that restriction (the caller, which knows the NAL
// type, does) but does reject any leading byte run that is neither zero
// padding nor a valid start-code prefix.
type Scanner struct {
	r      *bufio.Reader
	offset int64
	pending []byte
	done    bool
}

// NewScanner constructs a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next NAL unit, or io.EOF once the stream is exhausted.
func (s *Scanner) Next() (*RawNALUnit, error) {
	if s.done {
		return nil, io.EOF
	}
	if s.pending == nil {
		if err := s.seekFirstStartCode(); err != nil {
			return nil, err
		}
	}
	startOffset := s.offset
	payload, hitEOF, err := s.readUntilNextStartCode()
	if err != nil {
		return nil, err
	}
	if hitEOF {
		s.done = true
	}
	return &RawNALUnit{Offset: startOffset, Payload: payload}, nil
}

// seekFirstStartCode advances past any leading zero_byte padding and the
// first start code, positioning the scanner at the first NAL unit.
func (s *Scanner) seekFirstStartCode() error {
	zeros := 0
	for {
		b, err := s.r.ReadByte()
		if err == io.EOF {
			return diag.NewParserError(s.offset, "start_code", errInvalidStartCode)
		}
		if err != nil {
			return err
		}
		s.offset++
		switch {
		case b == 0x00:
			zeros++
		case b == 0x01 && zeros >= 2:
			s.pending = []byte{}
			return nil
		default:
			return diag.NewParserError(s.offset, "start_code", errInvalidStartCode)
		}
	}
}

// readUntilNextStartCode accumulates bytes into the current NAL's payload
// until the next start code (or EOF), leaving the scanner positioned just
// after that start code for the following call.
func (s *Scanner) readUntilNextStartCode() ([]byte, bool, error) {
	var buf []byte
	zeros := 0
	for {
		b, err := s.r.ReadByte()
		if err == io.EOF {
			buf = trimTrailingZero(buf)
			return buf, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		s.offset++

		if b == 0x01 && zeros >= 2 {
			n := len(buf) - zeros
			if n < 0 {
				n = 0
			}
			return buf[:n], false, nil
		}
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
		buf = append(buf, b)
	}
}

// trimTrailingZero drops a single trailing zero_byte that may precede EOF,
// matching the "00" padding allowed before a four-byte start code that
// never arrives because the stream simply ends.
func trimTrailingZero(buf []byte) []byte {
	if len(buf) > 0 && buf[len(buf)-1] == 0x00 {
		return buf[:len(buf)-1]
	}
	return buf
}
